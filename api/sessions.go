package api

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

const defaultMaxSessions = 256

type liveSession struct {
	session  *chat.Session
	lastUsed time.Time
}

// sessionRegistry keeps at most limit live chat.Sessions, one per widget
// session ID. Past the limit the least recently used idle session is
// dropped; with a Driver configured it is restored on its next message.
type sessionRegistry struct {
	config Config
	limit  int
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

func newSessionRegistry(c Config) *sessionRegistry {
	limit := c.MaxSessions
	if limit <= 0 {
		limit = defaultMaxSessions
	}
	return &sessionRegistry{
		config:   c,
		limit:    limit,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// get returns the live session for id, or nil.
func (r *sessionRegistry) get(id string) *chat.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.sessions[id]
	if !ok {
		return nil
	}
	live.lastUsed = r.now()
	return live.session
}

// len returns the number of live sessions.
func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// open returns the live session for id, creating it (and restoring its
// stored transcript) on first use.
func (r *sessionRegistry) open(ctx context.Context, id string) (*chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if live, ok := r.sessions[id]; ok {
		live.lastUsed = r.now()
		return live.session, nil
	}

	history, err := r.stored(ctx, id)
	if err != nil {
		return nil, err
	}

	s := chat.NewSession(chat.Config{
		Client:    r.config.Client,
		SessionID: id,
		History:   history,
		Pool:      r.config.Pool,
		Source:    r.config.Source,
		Logger:    r.config.Logger,
	})
	r.sessions[id] = &liveSession{session: s, lastUsed: r.now()}
	r.evict(id)
	return s, nil
}

// evict drops least recently used idle sessions until the registry is
// within its limit. keep is never dropped. Busy sessions are skipped, so
// the limit can be exceeded while every session is answering.
func (r *sessionRegistry) evict(keep string) {
	for len(r.sessions) > r.limit {
		victim := ""
		var oldest time.Time
		for id, live := range r.sessions {
			if id == keep || live.session.Busy() {
				continue
			}
			if victim == "" || live.lastUsed.Before(oldest) {
				victim, oldest = id, live.lastUsed
			}
		}
		if victim == "" {
			return
		}
		delete(r.sessions, victim)
		r.config.Logger.Debug("evicted idle session", "session_id", victim)
	}
}

// stored loads a transcript from the driver. A missing session is not an
// error.
func (r *sessionRegistry) stored(ctx context.Context, id string) ([]llm.ChatMessage, error) {
	if r.config.Driver == nil {
		return nil, nil
	}

	msgs, err := r.config.Driver.Messages(ctx, id)
	if errors.As(err, &storage.ErrNotFound{}) {
		return nil, nil
	}
	return msgs, err
}
