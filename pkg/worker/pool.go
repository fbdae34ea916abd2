// Package worker provides an asynchronous worker pool that persists chat
// exchanges using the provided storage.Driver and publishes them using the
// provided eventstream.Publisher.
//
// The pool keeps storage and publishing off the request path so a slow
// database or broker never delays the reply shown to the user.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/workcharge/charge/pkg/eventstream"
	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/logger"
	"github.com/workcharge/charge/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is one finished exchange for the worker pool to persist.
type Job struct {
	SessionID string
	Prompt    llm.ChatMessage
	Reply     llm.ChatMessage

	// Event is published after the messages are stored. May be nil.
	Event *eventstream.ExchangeEvent
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting messages. Optional.
	Driver storage.Driver

	// Publisher receives an event per job. Optional.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "session_id", job.SessionID)
		return true
	default:
		p.logger.Warn("job not queued, queue full, job dropped", "session_id", job.SessionID)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the exchange and then publishes its event. A storage
// failure skips publishing.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	if p.config.Driver != nil {
		if err := p.config.Driver.Append(ctx, job.SessionID, job.Prompt, job.Reply); err != nil {
			p.logger.Error("async transcript storage failed",
				"session_id", job.SessionID,
				"error", err,
			)
			return
		}

		p.logger.Debug("exchange stored",
			"session_id", job.SessionID,
			"prompt_id", job.Prompt.ID,
			"reply_id", job.Reply.ID,
		)
	}

	if p.config.Publisher == nil || job.Event == nil {
		return
	}

	if err := p.config.Publisher.PublishExchange(ctx, job.Event); err != nil {
		p.logger.Warn("failed to publish exchange event",
			"session_id", job.SessionID,
			"event_id", job.Event.EventID,
			"error", err,
		)
	}
}
