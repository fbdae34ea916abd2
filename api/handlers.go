package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/markup"
	"github.com/workcharge/charge/pkg/storage"
)

// MessageRequest is the body of POST /api/sessions/:id/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// Message is a transcript entry with its content rendered for the widget.
type Message struct {
	ID        string    `json:"id"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
	Failed    bool      `json:"failed,omitempty"`
}

// MessagesResponse lists a session's transcript.
type MessagesResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ReplyResponse carries the assistant message produced by one exchange.
// Error is set when the exchange failed; Reply then holds the fallback.
type ReplyResponse struct {
	SessionID string  `json:"session_id"`
	Reply     Message `json:"reply"`
	Error     string  `json:"error,omitempty"`
}

// SessionResponse names a newly created session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

func newMessage(m llm.ChatMessage) Message {
	return Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		HTML:      markup.Render(m.Content),
		CreatedAt: m.CreatedAt,
		Failed:    m.Failed,
	}
}

func newMessages(msgs []llm.ChatMessage) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = newMessage(m)
	}
	return out
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(s.index)
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleFeatures(c *fiber.Ctx) error {
	return c.JSON(chat.Features)
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{SessionID: chat.NewSessionID()})
}

// handleListSessions summarizes stored sessions.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	if s.config.Driver == nil {
		return c.JSON([]storage.SessionSummary{})
	}

	sessions, err := s.config.Driver.Sessions(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list sessions"})
	}
	if sessions == nil {
		sessions = []storage.SessionSummary{}
	}
	return c.JSON(sessions)
}

// handleGetMessages returns a session's transcript. Unknown sessions have
// an empty transcript.
func (s *Server) handleGetMessages(c *fiber.Ctx) error {
	id := c.Params("id")
	if !sessionIDPattern.MatchString(id) {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid session id"})
	}

	var msgs []llm.ChatMessage
	if live := s.sessions.get(id); live != nil {
		msgs = live.Transcript()
	} else {
		stored, err := s.sessions.stored(c.UserContext(), id)
		if err != nil {
			s.logger.Error("failed to load transcript", "session_id", id, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load transcript"})
		}
		msgs = stored
	}

	return c.JSON(MessagesResponse{SessionID: id, Messages: newMessages(msgs)})
}

// handlePostMessage runs one exchange and returns the assistant reply.
// A session that is still answering an earlier message gets 409.
func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	id := c.Params("id")
	if !sessionIDPattern.MatchString(id) {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid session id"})
	}

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	session, err := s.sessions.open(c.UserContext(), id)
	if err != nil {
		s.logger.Error("failed to open session", "session_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to open session"})
	}

	reply, err := session.Send(c.UserContext(), req.Message)
	switch {
	case err == nil:
		return c.JSON(ReplyResponse{SessionID: id, Reply: newMessage(reply)})
	case errors.Is(err, chat.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: err.Error()})
	case errors.Is(err, chat.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(ReplyResponse{
			SessionID: id,
			Reply:     newMessage(reply),
			Error:     err.Error(),
		})
	}
}
