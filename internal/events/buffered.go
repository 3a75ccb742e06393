package events

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const drainTimeout = 5 * time.Second

// Buffered decouples ledger transactions from a slow sink. Publish never
// blocks: when the buffer is full the event is dropped and counted. Run
// forwards events to the next publisher until ctx is cancelled, then drains
// what is left.
type Buffered struct {
	next    Publisher
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64
}

func NewBuffered(next Publisher, size int, logger *slog.Logger) *Buffered {
	if size <= 0 {
		size = 1024
	}
	return &Buffered{next: next, inbox: make(chan Event, size), logger: logger}
}

func (b *Buffered) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		select {
		case b.inbox <- e:
		default:
			b.dropped.Add(1)
			if b.logger != nil {
				b.logger.WarnContext(ctx, "event buffer full, dropping event",
					"event_type", e.Type,
					"event_id", e.ID,
				)
			}
		}
	}
	return nil
}

// Dropped reports how many events were discarded because the buffer was full.
func (b *Buffered) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Buffered) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.drain()
			return nil
		case e := <-b.inbox:
			b.forward(ctx, e)
		}
	}
}

func (b *Buffered) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-b.inbox:
			b.forward(ctx, e)
		default:
			return
		}
	}
}

func (b *Buffered) forward(ctx context.Context, e Event) {
	if err := b.next.Publish(ctx, e); err != nil && b.logger != nil {
		b.logger.ErrorContext(ctx, "failed to forward event",
			"event_type", e.Type,
			"event_id", e.ID,
			"error", err,
		)
	}
}
