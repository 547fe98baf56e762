package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSection labels search results that arrive without a section
const DefaultSection = "General Content"

// AcceptedExtensions lists the document types offered for upload.
// The list is a selection hint; the document service makes the final call.
var AcceptedExtensions = []string{".pdf", ".txt", ".docx"}

// ErrUnsupportedType is returned when a file is not one of AcceptedExtensions
var ErrUnsupportedType = errors.New("unsupported document type")

// DocumentFile is a document selected for upload
type DocumentFile struct {
	Name string
	Data []byte
}

// LoadDocumentFile reads a document from disk
func LoadDocumentFile(path string) (DocumentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentFile{}, fmt.Errorf("failed to read document: %w", err)
	}
	return DocumentFile{Name: filepath.Base(path), Data: data}, nil
}

// IsAcceptedType reports whether name carries one of AcceptedExtensions
func IsAcceptedType(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range AcceptedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SearchResult represents a scored excerpt of the uploaded document
type SearchResult struct {
	Content        string `json:"content"`
	Section        string `json:"section,omitempty"`
	RelevanceScore string `json:"relevance_score"`
}

// UnmarshalJSON keeps relevance_score as display text whatever its JSON type
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content        string          `json:"content"`
		Section        string          `json:"section"`
		RelevanceScore json.RawMessage `json:"relevance_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Content = raw.Content
	r.Section = raw.Section
	r.RelevanceScore = ""

	score := bytes.TrimSpace(raw.RelevanceScore)
	if len(score) == 0 || bytes.Equal(score, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(score, &s); err == nil {
		r.RelevanceScore = s
		return nil
	}
	r.RelevanceScore = string(score)
	return nil
}

// Normalize returns a copy ready for display: content trimmed, section defaulted
func (r SearchResult) Normalize() SearchResult {
	section := r.Section
	if strings.TrimSpace(section) == "" {
		section = DefaultSection
	}
	return SearchResult{
		Content:        strings.TrimSpace(r.Content),
		Section:        section,
		RelevanceScore: r.RelevanceScore,
	}
}
