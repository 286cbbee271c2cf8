package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session event types.
const (
	// TypeSessionStarted is emitted after a session is committed and persisted,
	// either by login/register or by restoring it at startup.
	TypeSessionStarted = "session.started"

	// TypeSessionEnded is emitted after logout has cleared the session.
	TypeSessionEnded = "session.ended"
)

// Event describes a change of the authenticated session.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Token is the access token the session carried when the event was
	// created. Handlers use it to tag work they start in response.
	Token string `json:"-"`

	// Revision is the version of the session-scoped data when the event was
	// created. Handlers that apply results later compare it to detect newer
	// local changes.
	Revision uint64 `json:"-"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates an Event of the given type for token.
func NewEvent(eventType, token string) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers must not block on remote I/O; long work belongs in a goroutine
	// the handler owns.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
