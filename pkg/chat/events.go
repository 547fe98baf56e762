package chat

import "github.com/andrew/doc-chat/pkg/models"

// EventType identifies a session transition
type EventType int

const (
	// EventMessage reports a message appended to the transcript
	EventMessage EventType = iota
	// EventPhase reports a phase change
	EventPhase
	// EventFocusInput asks the front-end to return focus to the input line
	EventFocusInput
)

func (t EventType) String() string {
	switch t {
	case EventMessage:
		return "message"
	case EventPhase:
		return "phase"
	case EventFocusInput:
		return "focus-input"
	default:
		return "unknown"
	}
}

// Event is delivered to a Listener after the session lock is released
type Event struct {
	Type    EventType
	Message models.Message // set for EventMessage
	Phase   Phase          // set for EventPhase
}

// Listener receives session events in the order they happen
type Listener func(Event)
