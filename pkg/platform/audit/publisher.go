package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher stamps and forwards events to a Store. Emission never blocks
// request handling: with an async buffer, events are appended by a single
// background worker and a full buffer drops the event with a log line
// rather than stalling the caller.
type Publisher struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	queue chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer makes Emit enqueue instead of appending inline.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) { p.queue = make(chan Event, size) }
}

func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. ID and timestamp are filled here so callers only
// describe what happened.
func (p *Publisher) Emit(ctx context.Context, ev Event) {
	ev.ID = uuid.New()
	ev.At = p.now().UTC()

	if p.queue == nil {
		if err := p.store.Append(ctx, ev); err != nil {
			p.logger.ErrorContext(ctx, "append audit event", slog.Any("error", err), slog.String("action", string(ev.Action)))
		}
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped", slog.String("action", string(ev.Action)))
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for ev := range p.queue {
		if err := p.store.Append(context.Background(), ev); err != nil {
			p.logger.Error("append audit event", slog.Any("error", err), slog.String("action", string(ev.Action)))
		}
	}
}

// Close flushes the async buffer. Safe to call on a synchronous publisher.
func (p *Publisher) Close() {
	if p.queue == nil {
		return
	}
	p.once.Do(func() { close(p.queue) })
	p.wg.Wait()
}
