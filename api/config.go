// Package api provides the HTTP server behind the web chat widget.
package api

import (
	"log/slog"
	"net/http"

	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/storage"
	"github.com/workcharge/charge/pkg/worker"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// Client streams replies from the agent.
	Client chat.Streamer

	// Driver restores transcripts of sessions this process has not seen.
	// Optional.
	Driver storage.Driver

	// Pool persists and publishes finished exchanges. Optional.
	Pool *worker.Pool

	// MaxSessions caps the live sessions held in memory. Defaults to 256.
	MaxSessions int

	// Source is stamped on exchange events.
	Source eventstream.EventSource

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler

	Logger *slog.Logger
}
