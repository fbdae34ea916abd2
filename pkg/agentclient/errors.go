package agentclient

import (
	"fmt"
)

// TransportError reports a request that failed before a usable response
// arrived: a network or DNS failure (Err set) or a non-2xx status.
type TransportError struct {
	Method string
	URL    string

	// Status is zero when no response was received.
	Status int

	// Body holds the start of a non-2xx response body.
	Body string

	Err error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, e.Body)
		}
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a tool call the agent answered with status "failed".
type APIError struct {
	ToolName string
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "tool call failed"
	}

	switch {
	case e.ToolName != "" && e.Code != "":
		return fmt.Sprintf("%s: %s (%s)", e.ToolName, msg, e.Code)
	case e.ToolName != "":
		return fmt.Sprintf("%s: %s", e.ToolName, msg)
	case e.Code != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return msg
	}
}
