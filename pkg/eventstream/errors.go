package eventstream

import "errors"

var (
	// ErrNilEvent indicates a nil exchange event payload was provided to a publisher.
	ErrNilEvent = errors.New("nil exchange event")

	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("publisher closed")
)
