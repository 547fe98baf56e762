// Package chat holds the conversation state between the user and the
// document service: the transcript, the upload/chat phase and the
// in-flight guard that keeps at most one request outstanding.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andrew/doc-chat/pkg/docservice"
	"github.com/andrew/doc-chat/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase gates whether queries are allowed
type Phase string

const (
	// PhaseAwaitingDocument is the initial phase; queries are ignored
	PhaseAwaitingDocument Phase = "awaiting-document"
	// PhaseReady follows a successful upload
	PhaseReady Phase = "ready"
)

// Texts written to the transcript
const (
	WelcomeText        = "Welcome! Please upload a document to get started."
	UploadNoticeFormat = "Uploading document: %s"
	UploadSuccessText  = "Document uploaded successfully! You can now ask questions about it."
	UploadErrorPrefix  = "Error uploading document. "
	SearchResultsText  = "Here are the relevant sections from the document:"
	NoMatchText        = "No matching content found"
	QueryErrorPrefix   = "Error processing your query. "
)

var (
	// ErrInFlight is returned when an upload is attempted while another request is outstanding
	ErrInFlight = errors.New("a request is already in progress")
	// ErrEmptyDocument is returned for a document without a name or content
	ErrEmptyDocument = errors.New("document is empty")
)

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithListener registers the callback notified of every transition
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listener = l
	}
}

// Session is the chat state machine. It is safe for concurrent use; the
// remote call of an operation runs without holding the lock so that other
// callers see the in-flight flag and back off.
type Session struct {
	client   docservice.Client
	logger   *zap.Logger
	now      func() time.Time
	listener Listener

	mu        sync.Mutex
	id        string
	created   time.Time
	messages  []models.Message
	phase     Phase
	inFlight  bool
	input     string
	document  string
	sessionID string
}

// NewSession creates a session awaiting its first document. The transcript
// starts with the assistant's welcome message.
func NewSession(client docservice.Client, opts ...Option) *Session {
	s := &Session{
		client: client,
		logger: zap.NewNop(),
		now:    time.Now,
		id:     uuid.NewString(),
		phase:  PhaseAwaitingDocument,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("chat").With(zap.String("session", s.id))
	s.created = s.now()
	s.appendLocked(models.NewMessage(WelcomeText, models.SenderAssistant, models.KindPlainText, s.created))
	return s
}

// SubmitDocument uploads doc and records both the attempt and its outcome in
// the transcript. A failed upload is not returned as an error: it becomes an
// assistant message and sends the session back to PhaseAwaitingDocument.
func (s *Session) SubmitDocument(ctx context.Context, doc models.DocumentFile) error {
	if doc.Name == "" || len(doc.Data) == 0 {
		return ErrEmptyDocument
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrInFlight
	}
	s.inFlight = true
	notice := models.NewMessage(fmt.Sprintf(UploadNoticeFormat, doc.Name), models.SenderUser, models.KindFileNotice, s.now())
	notice.FileName = doc.Name
	notice = s.appendLocked(notice)
	s.mu.Unlock()
	s.emit(Event{Type: EventMessage, Message: notice})

	_, err := s.client.UploadDocument(ctx, doc)

	s.mu.Lock()
	var (
		reply models.Message
		next  Phase
	)
	if err != nil {
		s.logger.Warn("upload failed", zap.String("file", doc.Name), zap.Error(err))
		reply = models.NewMessage(UploadErrorPrefix+err.Error(), models.SenderAssistant, models.KindPlainText, s.now())
		reply.Failed = true
		next = PhaseAwaitingDocument
		s.document = ""
	} else {
		reply = models.NewMessage(UploadSuccessText, models.SenderAssistant, models.KindPlainText, s.now())
		next = PhaseReady
		s.document = doc.Name
	}
	reply = s.appendLocked(reply)
	changed := s.transitionLocked(next)
	s.inFlight = false
	s.mu.Unlock()

	s.emit(Event{Type: EventMessage, Message: reply})
	if changed {
		s.emit(Event{Type: EventPhase, Phase: next})
	}
	if err == nil {
		s.emit(Event{Type: EventFocusInput})
	}
	return nil
}

// SubmitQuery asks the service about the active document. It returns false
// without touching any state when the session is not ready, a request is
// already in flight, or text is blank.
func (s *Session) SubmitQuery(ctx context.Context, text string) bool {
	s.mu.Lock()
	if s.phase != PhaseReady || s.inFlight || strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return false
	}
	s.inFlight = true
	s.input = ""
	question := s.appendLocked(models.NewMessage(text, models.SenderUser, models.KindPlainText, s.now()))
	sc := docservice.SessionContext{ID: s.sessionID}
	s.mu.Unlock()
	s.emit(Event{Type: EventMessage, Message: question})

	resp, err := s.client.QueryDocument(ctx, sc, text)

	s.mu.Lock()
	var reply models.Message
	switch {
	case err != nil:
		s.logger.Warn("query failed", zap.Error(err))
		reply = models.NewMessage(QueryErrorPrefix+err.Error(), models.SenderAssistant, models.KindPlainText, s.now())
		reply.Failed = true
	case resp != nil && resp.Results.Kind == docservice.ResultsList:
		results := make([]models.SearchResult, len(resp.Results.Items))
		for i, r := range resp.Results.Items {
			results[i] = r.Normalize()
		}
		reply = models.NewMessage(SearchResultsText, models.SenderAssistant, models.KindSearchResults, s.now())
		reply.Results = results
	default:
		answer := ""
		if resp != nil {
			answer = resp.Results.Text
		}
		if answer == "" {
			answer = NoMatchText
		}
		reply = models.NewMessage(answer, models.SenderAssistant, models.KindPlainText, s.now())
	}
	if err == nil && resp != nil && resp.SessionID != "" {
		s.sessionID = resp.SessionID
	}
	reply = s.appendLocked(reply)
	s.inFlight = false
	s.mu.Unlock()

	s.emit(Event{Type: EventMessage, Message: reply})
	s.emit(Event{Type: EventFocusInput})
	return true
}

// SubmitInput submits the pending input buffer as a query
func (s *Session) SubmitInput(ctx context.Context) bool {
	return s.SubmitQuery(ctx, s.Input())
}

// SetInput replaces the pending input buffer
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the pending input buffer
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Transcript returns a copy of all messages in order
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// InFlight reports whether an upload or query is outstanding
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// ActiveDocument returns the name of the document queries run against,
// or "" while no upload has succeeded
func (s *Session) ActiveDocument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// SessionID returns the continuity id last handed out by the service
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// ResetSession forgets the continuity id. The transcript, phase and active
// document are kept.
func (s *Session) ResetSession() {
	s.mu.Lock()
	s.sessionID = ""
	s.mu.Unlock()
	s.logger.Debug("session continuity reset")
}

// Snapshot returns the transcript in its export form
func (s *Session) Snapshot() models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)
	return models.Transcript{
		ID:       s.id,
		Document: s.document,
		Messages: messages,
		Created:  s.created,
		Updated:  messages[len(messages)-1].CreatedAt,
	}
}

// appendLocked numbers msg and adds it to the transcript. Timestamps never
// go backwards even if the wall clock does.
func (s *Session) appendLocked(msg models.Message) models.Message {
	if n := len(s.messages); n > 0 {
		last := s.messages[n-1].CreatedAt
		if msg.CreatedAt.Before(last) {
			msg.CreatedAt = last
			msg.Timestamp = last.Format(models.TimestampLayout)
		}
	}
	msg.Seq = len(s.messages) + 1
	s.messages = append(s.messages, msg)
	return msg
}

// transitionLocked moves to next and reports whether the phase changed
func (s *Session) transitionLocked(next Phase) bool {
	if s.phase == next {
		return false
	}
	s.logger.Info("phase transition",
		zap.String("from", string(s.phase)),
		zap.String("to", string(next)),
		zap.String("document", s.document))
	s.phase = next
	return true
}

func (s *Session) emit(ev Event) {
	if s.listener != nil {
		s.listener(ev)
	}
}
