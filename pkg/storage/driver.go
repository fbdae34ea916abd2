// Package storage persists chat transcripts.
package storage

import (
	"context"
	"time"

	"github.com/workcharge/charge/pkg/llm"
)

// Driver stores transcripts keyed by session ID.
type Driver interface {
	// Append adds messages to a session's transcript. Messages whose ID is
	// already stored are ignored.
	Append(ctx context.Context, sessionID string, msgs ...llm.ChatMessage) error

	// Messages returns a session's transcript oldest first, or ErrNotFound.
	Messages(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)

	// Sessions summarizes every stored session, most recently active first.
	Sessions(ctx context.Context) ([]SessionSummary, error)

	// Close releases any resources held by the driver.
	Close() error
}

// SessionSummary describes one stored session.
type SessionSummary struct {
	SessionID    string
	MessageCount int
	FirstPrompt  string
	StartedAt    time.Time
	UpdatedAt    time.Time
}
