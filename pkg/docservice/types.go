package docservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andrew/doc-chat/pkg/models"
)

// UploadAck is the service's confirmation of a processed document
type UploadAck struct {
	Message  string   `json:"message"`
	FileName string   `json:"file_name"`
	Status   string   `json:"status"`
	Features Features `json:"features"`
}

// Features reports optional processing capabilities of the service
type Features struct {
	OCRAvailable   bool `json:"ocr_available"`
	FAISSAvailable bool `json:"faiss_available"`
}

// QueryResponse is the answer to a document query
type QueryResponse struct {
	Query        string        `json:"query"`
	Results      Results       `json:"results"`
	TotalResults int           `json:"total_results"`
	Metadata     QueryMetadata `json:"metadata"`
	SessionID    string        `json:"session_id,omitempty"`
}

// QueryMetadata summarises where the results came from
type QueryMetadata struct {
	SectionsFound []string `json:"sections_found"`
}

// ResultsKind discriminates the two shapes a query answer may take
type ResultsKind int

const (
	// ResultsText is a plain answer string
	ResultsText ResultsKind = iota
	// ResultsList is an ordered list of matching excerpts
	ResultsList
)

func (k ResultsKind) String() string {
	switch k {
	case ResultsList:
		return "list"
	default:
		return "text"
	}
}

// Results holds either a list of excerpts or a text answer, never both.
// The service sends no type tag, so the shape is decided while decoding.
type Results struct {
	Kind  ResultsKind
	Items []models.SearchResult
	Text  string
}

// TextResults builds a text-shaped Results
func TextResults(text string) Results {
	return Results{Kind: ResultsText, Text: text}
}

// ListResults builds a list-shaped Results
func ListResults(items ...models.SearchResult) Results {
	if items == nil {
		items = []models.SearchResult{}
	}
	return Results{Kind: ResultsList, Items: items}
}

// UnmarshalJSON decides the shape from the JSON value: arrays become lists,
// strings become text, falsy scalars (null, false, zero) become empty text
// and any other scalar is kept as its literal text.
func (r *Results) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Results{}

	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var items []models.SearchResult
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to decode result list: %w", err)
		}
		*r = ListResults(items...)
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("failed to decode result text: %w", err)
		}
		*r = TextResults(text)
	case '{':
		return fmt.Errorf("unexpected object for results")
	default:
		literal := string(data)
		if isFalsy(literal) {
			literal = ""
		}
		*r = TextResults(literal)
	}
	return nil
}

func isFalsy(literal string) bool {
	if literal == "null" || literal == "false" {
		return true
	}
	n, err := strconv.ParseFloat(literal, 64)
	return err == nil && n == 0
}

// MarshalJSON writes the results back in the service's own shape
func (r Results) MarshalJSON() ([]byte, error) {
	if r.Kind == ResultsList {
		items := r.Items
		if items == nil {
			items = []models.SearchResult{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(r.Text)
}

// errorBody is the failure shape of both endpoints. detail is not always a
// string: validation failures carry a list there.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  json.RawMessage `json:"error"`
}

// message picks detail, then error, then fallback
func (b errorBody) message(fallback string) string {
	for _, raw := range []json.RawMessage{b.Detail, b.Error} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return fallback
}
