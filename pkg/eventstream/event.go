package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/workcharge/charge/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after a prompt/response exchange
	// with the agent finishes, successfully or not.
	EventTypeExchangeCompleted = "charge.exchange.completed.v1"
)

// ExchangeEvent is a transport-neutral event payload for one exchange.
type ExchangeEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	SessionID     string          `json:"session_id"`
	Source        EventSource     `json:"source"`
	Timing        ExchangeTiming  `json:"timing"`
	Prompt        llm.ChatMessage `json:"prompt"`
	Reply         llm.ChatMessage `json:"reply"`
	Error         string          `json:"error,omitempty"`
}

// EventSource identifies where the exchange originated.
type EventSource struct {
	// Surface is the front end that sent the prompt: cli, tui, web or mcp.
	Surface string `json:"surface"`
	BaseURL string `json:"base_url"`
}

// ExchangeTiming captures request lifecycle metadata for the event.
type ExchangeTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewExchangeEvent stamps an event for the given exchange with a fresh ID.
func NewExchangeEvent(sessionID string, source EventSource, started time.Time, prompt, reply llm.ChatMessage, err error) *ExchangeEvent {
	now := time.Now().UTC()
	ev := &ExchangeEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		SessionID:     sessionID,
		Source:        source,
		Timing: ExchangeTiming{
			StartedAt:   started.UTC(),
			CompletedAt: now,
			DurationMs:  now.Sub(started).Milliseconds(),
		},
		Prompt: prompt,
		Reply:  reply,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
