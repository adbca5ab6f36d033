package events

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	DeclarationCreated       = "declaration.created"
	DeclarationStatusChanged = "declaration.status_changed"
	DeclarationDeleted       = "declaration.deleted"
	AuthPasswordRecovery     = "auth.password_recovery"
	AuthEmailConfirmation    = "auth.email_confirmation"
)

const (
	DeclarationsQueue = "pertepiece.declarations"
	AuthQueue         = "pertepiece.auth"
)

// Event is the JSON envelope written to the broker.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

func New(eventType string, payload map[string]interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// QueueFor routes an event type to its durable queue.
func QueueFor(eventType string) string {
	if strings.HasPrefix(eventType, "auth.") {
		return AuthQueue
	}
	return DeclarationsQueue
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error {
	slog.DebugContext(ctx, "event dropped, no broker configured", "type", event.Type)
	return nil
}

func (NopPublisher) Close() {}
