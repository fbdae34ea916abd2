package sse

import "fmt"

// StreamReadError reports a failure reading the response body after the
// stream was opened. It ends the event sequence.
type StreamReadError struct {
	Err error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("reading event stream: %v", e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

// MalformedEventError describes a "data: " line whose payload is not JSON.
// Reader logs and skips these; they never reach the caller of Next.
type MalformedEventError struct {
	Line string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event payload: %q", e.Line)
}
