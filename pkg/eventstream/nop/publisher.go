// Package nop provides the publisher used when no event backend is
// configured. Events are counted and dropped.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/workcharge/charge/pkg/eventstream"
)

type Publisher struct {
	dropped atomic.Int64
	closed  atomic.Bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) PublishExchange(_ context.Context, event *eventstream.ExchangeEvent) error {
	switch {
	case event == nil:
		return eventstream.ErrNilEvent
	case p.closed.Load():
		return eventstream.ErrClosed
	}

	p.dropped.Add(1)
	return nil
}

// Dropped reports how many events were accepted and discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close is idempotent.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	return nil
}
