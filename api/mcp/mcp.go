// Package mcp provides an MCP (Model Context Protocol) server that lets
// other agents talk to the remote agent through charge.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/utils"
	"github.com/workcharge/charge/pkg/worker"
)

// AgentClient is the part of *agentclient.Client the tools use.
type AgentClient interface {
	chat.Streamer
	Tools(ctx context.Context) (*agentclient.ToolsResponse, error)
}

type Config struct {
	// Client talks to the remote agent.
	Client AgentClient

	// Pool persists and publishes exchanges. Optional.
	Pool *worker.Pool

	// Source is stamped on exchange events.
	Source eventstream.EventSource

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

// NewServer creates a new MCP server with the agent tools.
func NewServer(c Config) (*Server, error) {
	if c.Client == nil {
		return nil, errors.New("agent client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config:   c,
		sessions: make(map[string]*chat.Session),
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "charge",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listToolsToolName,
		Description: listToolsDescription,
	}, s.handleListTools)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// RunStdio serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// session returns the chat session for id, starting a new one when id is
// empty or unknown.
func (s *Server) session(id string) *chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && id != "" {
		return sess
	}

	sess := chat.NewSession(chat.Config{
		Client:    s.config.Client,
		SessionID: id,
		Pool:      s.config.Pool,
		Source:    s.config.Source,
		Logger:    s.config.Logger,
	})
	s.sessions[sess.ID()] = sess
	return sess
}
