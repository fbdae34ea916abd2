package storage

// ErrNotFound is returned when a session has no stored messages.
type ErrNotFound struct {
	SessionID string
}

func (e ErrNotFound) Error() string {
	if e.SessionID == "" {
		return "session not found"
	}

	return "session not found: " + e.SessionID
}
