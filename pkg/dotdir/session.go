package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const sessionFile = "session.json"

// SessionState remembers the chat session the CLI last used so that
// "charge chat --resume" can continue it.
type SessionState struct {
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadSession returns the saved session state, or nil, nil when none exists.
func (m *Manager) LoadSession(overrideDir string) (*SessionState, error) {
	path, err := m.File(overrideDir, sessionFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}

	return state, nil
}

// SaveSession records sessionID as the active session.
func (m *Manager) SaveSession(sessionID string, overrideDir string) error {
	if sessionID == "" {
		return errors.New("cannot save empty session id")
	}

	path, err := m.File(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(&SessionState{
		SessionID: sessionID,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}

	return nil
}

// ClearSession forgets the active session. Missing state is not an error.
func (m *Manager) ClearSession(overrideDir string) error {
	path, err := m.File(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session state: %w", err)
	}

	return nil
}
