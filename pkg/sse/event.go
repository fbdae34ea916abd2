// Package sse consumes the agent's server-sent-event stream.
//
// The stream is decoded in two stages. A Decoder turns raw chunks into
// complete text lines, carrying split UTF-8 sequences and unterminated
// lines between chunks. A Reader pulls chunks from the response body,
// keeps only "data: " lines and parses their JSON payload into Events.
//
// ┌────────────────────┐
// │ response io.Reader │
// └────────────────────┘
// │ chunks
// ▼
// ┌────────────────────┐   ┌──────────────────────┐
// │  Decoder.Feed()    │──▶│ tee io.Writer (opt.) │
// └────────────────────┘   └──────────────────────┘
// │ lines
// ▼
// ┌────────────────────┐
// │   Reader.Next()    │──▶ *Event
// └────────────────────┘
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
package sse

// Kind classifies an Event for aggregation.
type Kind string

const (
	KindText       Kind = "text"
	KindToolResult Kind = "tool_result"
	KindOther      Kind = "other"
)

// Event is one parsed "data: " line of the agent stream.
type Event struct {
	Kind Kind

	// Type is the raw "type" field of the payload, empty when absent.
	Type string

	// Text is content.text when it is a JSON string, otherwise empty.
	Text string
}

func kindOf(typ string) Kind {
	switch Kind(typ) {
	case KindText, KindToolResult:
		return Kind(typ)
	default:
		return KindOther
	}
}
