// Package inmemory keeps transcripts in process memory.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu       sync.RWMutex
	sessions map[string][]llm.ChatMessage
	seen     map[string]bool
}

func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[string][]llm.ChatMessage),
		seen:     make(map[string]bool),
	}
}

func (d *Driver) Append(_ context.Context, sessionID string, msgs ...llm.ChatMessage) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range msgs {
		if d.seen[m.ID] {
			continue
		}
		d.seen[m.ID] = true
		d.sessions[sessionID] = append(d.sessions[sessionID], m)
	}

	return nil
}

func (d *Driver) Messages(_ context.Context, sessionID string) ([]llm.ChatMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msgs, ok := d.sessions[sessionID]
	if !ok {
		return nil, storage.ErrNotFound{SessionID: sessionID}
	}

	out := make([]llm.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (d *Driver) Sessions(_ context.Context) ([]storage.SessionSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]storage.SessionSummary, 0, len(d.sessions))
	for id, msgs := range d.sessions {
		s := storage.SessionSummary{
			SessionID:    id,
			MessageCount: len(msgs),
			StartedAt:    msgs[0].CreatedAt,
			UpdatedAt:    msgs[len(msgs)-1].CreatedAt,
		}
		for _, m := range msgs {
			if m.Role == llm.RoleUser {
				s.FirstPrompt = m.Content
				break
			}
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

func (d *Driver) Close() error {
	return nil
}
