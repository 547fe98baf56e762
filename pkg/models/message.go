package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message
type Sender string

const (
	// SenderUser represents a message typed or triggered by the user
	SenderUser Sender = "user"
	// SenderAssistant represents a message produced by the assistant
	SenderAssistant Sender = "assistant"
)

// Kind describes how a message should be displayed
type Kind string

const (
	// KindPlainText is ordinary text, including answers and error reports
	KindPlainText Kind = "plain-text"
	// KindFileNotice announces a document being uploaded
	KindFileNotice Kind = "file-notice"
	// KindSearchResults carries scored excerpts in Results
	KindSearchResults Kind = "search-results"
)

// TimestampLayout is the display format of Message.Timestamp
const TimestampLayout = "03:04 PM"

// Message represents a single entry of the chat transcript.
// Messages are never modified once appended.
type Message struct {
	ID        string         `json:"id"`
	Seq       int            `json:"seq"`
	Text      string         `json:"text"`
	Sender    Sender         `json:"sender"`
	Timestamp string         `json:"timestamp"`
	CreatedAt time.Time      `json:"created_at"`
	Kind      Kind           `json:"kind"`
	FileName  string         `json:"file_name,omitempty"`
	Results   []SearchResult `json:"results,omitempty"`
	// Failed marks an assistant reply that reports a failed upload or query
	Failed bool `json:"failed,omitempty"`
}

// NewMessage creates a message with a fresh random ID stamped at now
func NewMessage(text string, sender Sender, kind Kind, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: now.Format(TimestampLayout),
		CreatedAt: now,
		Kind:      kind,
	}
}

// Transcript represents a complete conversation with a document
type Transcript struct {
	ID       string    `json:"id"`
	Document string    `json:"document,omitempty"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}
