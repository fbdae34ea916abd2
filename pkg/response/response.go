// Package response folds the agent's event stream into the final reply.
package response

import (
	"strings"

	"github.com/workcharge/charge/pkg/sse"
)

// FallbackText stands in for a reply when the stream produced no text.
const FallbackText = "no response received"

// Buffer accumulates the text of one exchange. It must not be shared
// between exchanges.
type Buffer struct {
	b         strings.Builder
	onText    func(string)
	finalized bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// OnText registers fn to observe each fragment as it is appended.
func OnText(fn func(string)) Option {
	return func(b *Buffer) {
		b.onText = fn
	}
}

func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends the event's text when it is a non-empty text or tool_result
// event. It reports whether anything was appended.
func (b *Buffer) Add(ev *sse.Event) bool {
	if b.finalized || ev == nil || ev.Text == "" {
		return false
	}
	if ev.Kind != sse.KindText && ev.Kind != sse.KindToolResult {
		return false
	}

	b.b.WriteString(ev.Text)
	if b.onText != nil {
		b.onText(ev.Text)
	}
	return true
}

// Len returns the number of bytes accumulated so far.
func (b *Buffer) Len() int {
	return b.b.Len()
}

// Finalize freezes the buffer and returns the reply, or FallbackText when
// nothing was accumulated. Later Adds are ignored.
func (b *Buffer) Finalize() string {
	b.finalized = true
	if b.b.Len() == 0 {
		return FallbackText
	}
	return b.b.String()
}

// EventSource yields events until it returns nil, nil.
type EventSource interface {
	Next() (*sse.Event, error)
}

// Collect drains src into a new Buffer. On a read error the accumulated
// text is discarded and the error is returned.
func Collect(src EventSource, opts ...Option) (string, error) {
	b := NewBuffer(opts...)
	for {
		ev, err := src.Next()
		if err != nil {
			return "", err
		}
		if ev == nil {
			return b.Finalize(), nil
		}
		b.Add(ev)
	}
}
