package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inro/pkg/domain"
	dErrors "inro/pkg/domain-errors"
	audit "inro/pkg/platform/audit"
	"inro/pkg/platform/audit/metrics"
	"inro/pkg/platform/circuit"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store   audit.Store
	events  chan audit.Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
	now     func() time.Time
	async   bool

	mu     sync.RWMutex
	closed bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBreaker trips readiness after repeated store failures. While open,
// events that fail to persist are written to the logger instead.
func WithBreaker(b *circuit.Breaker) PublisherOption {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// NewPublisher panics if store is nil.
func NewPublisher(store audit.Store, opts ...PublisherOption) *Publisher {
	if store == nil {
		panic("publisher.NewPublisher: store is required")
	}
	p := &Publisher{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if p.metrics != nil {
			p.metrics.QueueDepth.Dec()
		}
		if err := p.persist(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"verification_id", event.VerificationID.String(),
			)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()
	err := p.store.Append(ctx, event)
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.PersistFailures.Inc()
		} else {
			p.metrics.EventsProcessed.Inc()
		}
	}
	if p.breaker == nil {
		return err
	}

	switch p.breaker.Record(err) {
	case circuit.Opened:
		p.log(ctx, slog.LevelWarn, "audit store circuit opened", "breaker", p.breaker.Name())
	case circuit.Closed:
		p.log(ctx, slog.LevelInfo, "audit store circuit closed", "breaker", p.breaker.Name())
	}
	if err != nil && p.breaker.IsOpen() {
		p.log(ctx, slog.LevelWarn, "audit event kept in log only",
			"action", event.Action,
			"verification_id", event.VerificationID.String(),
			"source", event.Source,
			"decision", event.Decision,
			"error_kind", event.ErrorKind,
			"request_id", event.RequestID,
		)
	}
	return err
}

func (p *Publisher) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if p.logger != nil {
		p.logger.Log(ctx, level, msg, args...)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
// Emit after Close fails.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Healthy is a readiness check: it fails once the publisher is closed, the
// async buffer is full or the store breaker is open.
func (p *Publisher) Healthy(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return dErrors.New(dErrors.CodeInternal, "audit publisher closed")
	}
	if p.async && len(p.events) == cap(p.events) {
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
	if p.breaker != nil && p.breaker.IsOpen() {
		return dErrors.New(dErrors.CodeInternal, "audit store unavailable")
	}
	return nil
}

func (p *Publisher) Emit(ctx context.Context, base audit.Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = p.now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return dErrors.New(dErrors.CodeInternal, "audit publisher closed")
	}

	if p.async {
		// Non-blocking send with context cancellation support
		select {
		case p.events <- base:
			if p.metrics != nil {
				p.metrics.EventsEnqueued.Inc()
				p.metrics.QueueDepth.Inc()
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
			if p.metrics != nil {
				p.metrics.EventsDropped.Inc()
			}
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", base.Action,
					"verification_id", base.VerificationID.String(),
				)
			}
			return dErrors.New(dErrors.CodeInternal, "audit buffer full")
		}
	}
	return p.persist(ctx, base)
}

func (p *Publisher) List(ctx context.Context, id domain.VerificationID) ([]audit.Event, error) {
	return p.store.ListByVerification(ctx, id)
}

func (p *Publisher) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}
