package events

import (
	"context"
	"time"
)

// Event defines the contract for all workspace events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_ANSWERED").
	EventType() string

	// SessionID returns the workspace session the event belongs to.
	SessionID() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeSessionStarted      = "SESSION_STARTED"
	TypeWorkspaceChanged    = "WORKSPACE_CHANGED"
	TypeConversationCreated = "CONVERSATION_CREATED"
	TypeConversationDeleted = "CONVERSATION_DELETED"
	TypeChatAnswered        = "CHAT_ANSWERED"
	TypeChatFailed          = "CHAT_FAILED"
	TypeCitationClicked     = "CITATION_CLICKED"
	TypeCitationUnresolved  = "CITATION_UNRESOLVED"
	TypeNamesLoaded         = "NAMES_LOADED"
	TypeDocumentOpened      = "DOCUMENT_OPENED"
	TypeDocumentClosed      = "DOCUMENT_CLOSED"
)

// BaseEvent is the concrete event used across the gateway.
type BaseEvent struct {
	Type       string
	Session    string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType, sessionID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{
		Type:       eventType,
		Session:    sessionID,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) SessionID() string {
	return e.Session
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event on the bus, the websocket and NATS.
type Envelope struct {
	Type       string                 `json:"type"`
	SessionID  string                 `json:"session_id,omitempty"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func NewEnvelope(e Event) Envelope {
	return Envelope{
		Type:       e.EventType(),
		SessionID:  e.SessionID(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	}
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
