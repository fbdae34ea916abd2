// Package chat holds the state of one conversation with the agent and the
// action table the front ends dispatch user input through.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/workcharge/charge/pkg/agentclient"
	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/logger"
	"github.com/workcharge/charge/pkg/response"
	"github.com/workcharge/charge/pkg/sse"
	"github.com/workcharge/charge/pkg/worker"
)

// FailurePrefix starts the assistant message that replaces a failed reply.
const FailurePrefix = "Sorry, an error occurred: "

var (
	// ErrBusy is returned by Send while another exchange is in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Streamer opens the agent's event stream for one message.
// *agentclient.Client implements it.
type Streamer interface {
	Stream(ctx context.Context, sessionID, message string) (*agentclient.Response, error)
}

// Config configures a Session.
type Config struct {
	Client Streamer

	// SessionID resumes an existing conversation. A new ID is generated
	// when empty.
	SessionID string

	// History seeds the transcript of a resumed conversation.
	History []llm.ChatMessage

	// Pool persists and publishes finished exchanges. Optional.
	Pool *worker.Pool

	// Source is stamped on published exchange events.
	Source eventstream.EventSource

	Logger *slog.Logger
}

// Session is one conversation. At most one exchange runs at a time; Send
// rejects a second caller with ErrBusy instead of queueing it.
type Session struct {
	id     string
	client Streamer
	pool   *worker.Pool
	source eventstream.EventSource
	logger *slog.Logger

	busy atomic.Bool

	mu         sync.RWMutex
	transcript []llm.ChatMessage
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

func NewSession(c Config) *Session {
	id := c.SessionID
	if id == "" {
		id = NewSessionID()
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Session{
		id:     id,
		client: c.Client,
		pool:   c.Pool,
		source: c.Source,
		logger: log.With("session_id", id),
	}
	s.transcript = append(s.transcript, c.History...)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []llm.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]llm.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

type sendOptions struct {
	onText func(string)
	tee    io.Writer
}

// SendOption configures a single Send.
type SendOption func(*sendOptions)

// OnText streams each reply fragment to fn as it arrives.
func OnText(fn func(string)) SendOption {
	return func(o *sendOptions) {
		o.onText = fn
	}
}

// Tee copies the raw event stream to w.
func Tee(w io.Writer) SendOption {
	return func(o *sendOptions) {
		o.tee = w
	}
}

// Send runs one exchange: it records text as a user message, streams the
// agent's reply and records that as an assistant message. When the request
// or the stream fails, any partial reply is dropped and a Failed assistant
// message describing the error is recorded and returned with the error.
func (s *Session) Send(ctx context.Context, text string, opts ...SendOption) (llm.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return llm.ChatMessage{}, ErrEmptyMessage
	}

	if !s.busy.CompareAndSwap(false, true) {
		return llm.ChatMessage{}, ErrBusy
	}
	defer s.busy.Store(false)

	o := &sendOptions{}
	for _, opt := range opts {
		opt(o)
	}

	started := time.Now()
	prompt := llm.NewChatMessage(llm.RoleUser, text)
	s.append(prompt)

	content, err := s.exchange(ctx, text, o)

	var reply llm.ChatMessage
	if err != nil {
		s.logger.Warn("exchange failed", "error", err)
		reply = llm.NewChatMessage(llm.RoleAssistant, FailurePrefix+err.Error())
		reply.Failed = true
	} else {
		s.logger.Debug("exchange completed",
			"duration", time.Since(started),
			"reply_bytes", len(content),
		)
		reply = llm.NewChatMessage(llm.RoleAssistant, content)
	}
	s.append(reply)
	s.record(started, prompt, reply, err)

	return reply, err
}

func (s *Session) exchange(ctx context.Context, text string, o *sendOptions) (string, error) {
	resp, err := s.client.Stream(ctx, s.id, text)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	readerOpts := []sse.ReaderOption{sse.WithLogger(s.logger)}
	if o.tee != nil {
		readerOpts = append(readerOpts, sse.WithTee(o.tee))
	}

	var bufOpts []response.Option
	if o.onText != nil {
		bufOpts = append(bufOpts, response.OnText(o.onText))
	}

	return response.Collect(sse.NewReader(resp.Body, readerOpts...), bufOpts...)
}

func (s *Session) append(m llm.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, m)
}

func (s *Session) record(started time.Time, prompt, reply llm.ChatMessage, err error) {
	if s.pool == nil {
		return
	}

	s.pool.Enqueue(worker.Job{
		SessionID: s.id,
		Prompt:    prompt,
		Reply:     reply,
		Event:     eventstream.NewExchangeEvent(s.id, s.source, started, prompt, reply, err),
	})
}
