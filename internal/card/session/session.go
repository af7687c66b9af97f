// Package session owns one contactless read from start to outcome. A Factory
// hands out explicit sessions, at most one live at a time per Factory, and
// each session delivers exactly one Outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inro/internal/card/reader"
	"inro/internal/platform/tracer"
	"inro/pkg/domain"
	"inro/pkg/requestcontext"
)

// DefaultAlertMessage is shown by platform sheets while the session polls.
const DefaultAlertMessage = "Hold your MyNumber Card near the reader"

// InvalidationReason says why a session ended before or after its read.
type InvalidationReason string

const (
	ReasonUserCanceled      InvalidationReason = "user_canceled"
	ReasonFirstReadComplete InvalidationReason = "first_read_complete"
	ReasonTimeout           InvalidationReason = "timeout"
	ReasonSystemBusy        InvalidationReason = "system_busy"
	ReasonOther             InvalidationReason = "other"
)

// silent reports whether the reason ends the session without an error outcome.
func (r InvalidationReason) silent() bool {
	return r == ReasonUserCanceled || r == ReasonFirstReadComplete
}

// ErrCanceled is returned by Wait when the session ended silently.
var ErrCanceled = errors.New("card session canceled")

// ErrBusy is the cause attached when Begin finds a live session.
var ErrBusy = errors.New("reader busy")

// Outcome is the single result of a session.
type Outcome struct {
	BirthDate domain.CalendarDate
	Err       error
}

// Factory begins sessions over one Capability.
type Factory struct {
	capability   Capability
	alertMessage string
	timeout      time.Duration
	tracer       tracer.Tracer
	logger       *slog.Logger

	mu   sync.Mutex
	live *Session
}

// Option configures the Factory.
type Option func(*Factory)

func WithAlertMessage(msg string) Option {
	return func(f *Factory) {
		f.alertMessage = msg
	}
}

// WithTimeout bounds each session. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.timeout = d
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(f *Factory) {
		f.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// NewFactory creates a Factory. Panics if capability is nil.
func NewFactory(capability Capability, opts ...Option) *Factory {
	if capability == nil {
		panic("session.NewFactory: capability is required")
	}
	f := &Factory{
		capability:   capability,
		alertMessage: DefaultAlertMessage,
		tracer:       tracer.NewNoop(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available reports the platform capability.
func (f *Factory) Available() bool {
	return f.capability.Available()
}

// AlertMessage is the prompt given to every session.
func (f *Factory) AlertMessage() string {
	return f.alertMessage
}

// Fork returns a Factory with f's capability and settings and its own gate.
// Reads over independent transports, such as relayed transcripts, each take
// a fork so they do not contend for one reader.
func (f *Factory) Fork() *Factory {
	return &Factory{
		capability:   f.capability,
		alertMessage: f.alertMessage,
		timeout:      f.timeout,
		tracer:       f.tracer,
		logger:       f.logger,
	}
}

// Busy reports whether a session is live.
func (f *Factory) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live != nil
}

// Begin starts a session reading through d. Canceling ctx invalidates the
// session as user_canceled; exceeding the factory timeout invalidates it as
// timeout. Begin fails with session_invalidated while another session is live.
func (f *Factory) Begin(ctx context.Context, d Detector) (*Session, error) {
	f.mu.Lock()
	if f.live != nil {
		f.mu.Unlock()
		return nil, reader.NewError(reader.KindSessionInvalidated, "begin", ErrBusy)
	}

	var sctx context.Context
	var cancel context.CancelFunc
	if f.timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, f.timeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}
	sctx, span := f.tracer.Start(sctx, tracer.SpanCardSession)

	s := &Session{
		alertMessage: f.alertMessage,
		done:         make(chan Outcome, 1),
		cancel:       cancel,
		span:         span,
		logger:       f.logger,
		logCtx:       context.WithoutCancel(ctx),
	}
	s.release = func() {
		f.mu.Lock()
		if f.live == s {
			f.live = nil
		}
		f.mu.Unlock()
	}
	f.live = s
	f.mu.Unlock()

	f.logger.DebugContext(ctx, "card session started",
		"available", f.capability.Available(),
		"request_id", requestcontext.RequestID(ctx),
	)

	go s.watch(sctx)
	go func() {
		date, err := f.capability.ReadBirthDate(sctx, d)
		if sctx.Err() != nil {
			// The read lost the race with cancellation; the watcher's reason wins.
			s.Invalidate(reasonFor(sctx))
			return
		}
		s.deliver(Outcome{BirthDate: date, Err: err})
	}()
	return s, nil
}

// Session is one read attempt. Its methods are safe for concurrent use.
type Session struct {
	alertMessage string
	done         chan Outcome
	once         sync.Once
	cancel       context.CancelFunc
	release      func()
	span         tracer.Span
	logger       *slog.Logger
	logCtx       context.Context
}

// AlertMessage is the prompt platform UIs show while polling.
func (s *Session) AlertMessage() string {
	return s.alertMessage
}

// Done yields at most one Outcome and is then closed. A silent invalidation
// closes it without a value.
func (s *Session) Done() <-chan Outcome {
	return s.done
}

// Wait blocks for the outcome. It returns ErrCanceled after a silent
// invalidation. If ctx ends first the session is invalidated as user_canceled
// and ctx.Err() is returned.
func (s *Session) Wait(ctx context.Context) (domain.CalendarDate, error) {
	select {
	case o, ok := <-s.done:
		if !ok {
			return domain.CalendarDate{}, ErrCanceled
		}
		return o.BirthDate, o.Err
	case <-ctx.Done():
		s.Invalidate(ReasonUserCanceled)
		return domain.CalendarDate{}, ctx.Err()
	}
}

// Invalidate ends the session. Silent reasons close Done without a value;
// any other reason delivers session_invalidated. It is a no-op once an
// outcome has been delivered.
func (s *Session) Invalidate(reason InvalidationReason) {
	if reason.silent() {
		s.finish(nil, reason)
		return
	}
	err := reader.NewError(reader.KindSessionInvalidated, "invalidate", fmt.Errorf("reason %s", reason))
	s.finish(&Outcome{Err: err}, reason)
}

func (s *Session) deliver(o Outcome) {
	s.finish(&o, ReasonFirstReadComplete)
}

func (s *Session) finish(o *Outcome, reason InvalidationReason) {
	s.once.Do(func() {
		// Free the factory before anyone can observe the outcome.
		s.cancel()
		s.release()

		var err error
		if o != nil {
			err = o.Err
			s.done <- *o
			s.span.AddEvent(tracer.EventOutcomeDelivered)
		}
		close(s.done)

		s.span.SetAttributes(tracer.String(tracer.AttrInvalidation, string(reason)))
		if kind := reader.KindOf(err); kind != "" {
			s.span.SetAttributes(tracer.String(tracer.AttrErrorKind, string(kind)))
		}
		s.span.End(err)
		s.logger.DebugContext(s.logCtx, "card session ended",
			"reason", string(reason),
			"error_kind", string(reader.KindOf(err)),
			"request_id", requestcontext.RequestID(s.logCtx),
		)
	})
}

func (s *Session) watch(ctx context.Context) {
	<-ctx.Done()
	s.Invalidate(reasonFor(ctx))
}

func reasonFor(ctx context.Context) InvalidationReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonUserCanceled
}
