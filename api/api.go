package api

import (
	"embed"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/workcharge/charge/pkg/logger"
)

//go:embed static/index.html
var static embed.FS

// Server serves the chat widget and its JSON API.
type Server struct {
	config   Config
	sessions *sessionRegistry
	logger   *slog.Logger
	app      *fiber.App
	index    []byte
}

// NewServer creates a new API server.
func NewServer(config Config) (*Server, error) {
	if config.Client == nil {
		return nil, errors.New("agent client is required")
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	index, err := static.ReadFile("static/index.html")
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Session IDs from route params outlive the request.
		Immutable: true,
	})

	s := &Server{
		config:   config,
		sessions: newSessionRegistry(config),
		logger:   config.Logger,
		app:      app,
		index:    index,
	}

	app.Get("/", s.handleIndex)
	app.Get("/ping", s.handlePing)
	app.Get("/api/features", s.handleFeatures)
	app.Post("/api/sessions", s.handleCreateSession)
	app.Get("/api/sessions", s.handleListSessions)
	app.Get("/api/sessions/:id/messages", s.handleGetMessages)
	app.Post("/api/sessions/:id/messages", s.handlePostMessage)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting web server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
