package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inro/internal/attestation"
	"inro/internal/card/reader"
	"inro/internal/card/relay"
	"inro/internal/card/session"
	"inro/internal/platform/tracer"
	"inro/internal/verification/metrics"
	"inro/internal/verification/models"
	"inro/pkg/domain"
	dErrors "inro/pkg/domain-errors"
	audit "inro/pkg/platform/audit"
	"inro/pkg/platform/validation"
	"inro/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks AttestationIssuer

// AttestationIssuer signs and checks age-over attestations.
// Satisfied by *attestation.Service.
type AttestationIssuer interface {
	Issue(ctx context.Context, vid domain.VerificationID, source string) (attestation.Attestation, error)
	Verify(ctx context.Context, token string) (*attestation.Claims, error)
}

type Option func(*Service)

// Service evaluates the age predicate over a birth date typed in by an
// operator or read from a card through a relayed APDU transcript.
type Service struct {
	sessions *session.Factory
	attestor AttestationIssuer
	auditor  *audit.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
	clock    func(ctx context.Context) time.Time
}

// NewService panics if sessions is nil.
func NewService(sessions *session.Factory, opts ...Option) *Service {
	if sessions == nil {
		panic("service.NewService: session factory is required")
	}
	svc := &Service{
		sessions: sessions,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
		clock:    requestcontext.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAttestor enables attestations on passing results.
func WithAttestor(a AttestationIssuer) Option {
	return func(s *Service) {
		s.attestor = a
	}
}

func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock pins the reference instant. By default it is the request time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = func(context.Context) time.Time { return now() }
	}
}

// Capabilities reports what the gateway can do.
func (s *Service) Capabilities() models.Capabilities {
	return models.Capabilities{
		NFCAvailable:        s.sessions.Available(),
		MinimumAge:          domain.MinimumAge,
		AlertMessage:        s.sessions.AlertMessage(),
		AttestationsEnabled: s.attestor != nil,
	}
}

// VerifyBirthDate evaluates a manually entered birth date.
//
// Errors: CodeValidation when birth is unset or later than the reference date.
func (s *Service) VerifyBirthDate(ctx context.Context, birth domain.CalendarDate) (*models.Result, error) {
	if birth.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "birth_date is required")
	}
	now := s.clock(ctx)
	if referenceDate(now).Before(birth) {
		return nil, dErrors.New(dErrors.CodeValidation, "birth_date must not be in the future")
	}
	return s.evaluate(ctx, now, birth, models.SourceManual)
}

// VerifyCard replays the client's APDU transcript through a card session and
// evaluates the birth date it yields.
//
// Errors: card failures become domain errors carrying their reader kind;
// a session that ends without a read is CodeTimeout.
func (s *Service) VerifyCard(ctx context.Context, req models.CardRequest) (*models.Result, error) {
	if err := validation.CheckSliceCount("exchanges", len(req.Exchanges), validation.MaxExchanges); err != nil {
		return nil, err
	}

	transcript := relay.New(req.Exchanges)
	// Each request replays its own transcript, so it gets its own gate.
	start := time.Now()
	sess, err := s.sessions.Fork().Begin(ctx, transcript.Detector(req.TagType))
	if err != nil {
		return nil, s.cardFailure(ctx, err)
	}
	birth, err := sess.Wait(ctx)
	if s.metrics != nil {
		s.metrics.ObserveCardRead(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, s.cardFailure(ctx, err)
	}
	if n := transcript.Remaining(); n > 0 {
		s.logger.DebugContext(ctx, "relay transcript has unused exchanges",
			"remaining", n,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return s.evaluate(ctx, s.clock(ctx), birth, models.SourceCard)
}

func (s *Service) cardFailure(ctx context.Context, err error) error {
	kind := string(reader.KindOf(err))
	var out error
	switch {
	case kind != "":
		out = reader.DomainError(err)
	case errors.Is(err, session.ErrCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		kind = "canceled"
		out = dErrors.Wrap(err, dErrors.CodeTimeout, "card session ended before a read completed")
	default:
		kind = "internal"
		out = dErrors.Wrap(err, dErrors.CodeInternal, "card read failed")
	}

	if s.metrics != nil {
		s.metrics.IncCardError(kind)
	}
	s.logger.WarnContext(ctx, "card read failed",
		"error_kind", kind,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.Event{
		Action:    string(audit.EventCardReadFailed),
		Source:    models.SourceCard.String(),
		ErrorKind: kind,
	})
	return out
}

func (s *Service) evaluate(ctx context.Context, now time.Time, birth domain.CalendarDate, source models.Source) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerification, tracer.String(tracer.AttrSource, source.String()))

	ref := referenceDate(now)
	over := domain.IsOverMinimumAge(birth, ref)
	result := &models.Result{
		ID:              domain.NewVerificationID(),
		Status:          models.StatusFail,
		Reason:          models.ReasonUnderage,
		Age:             domain.CalculateAge(birth, ref),
		IsBirthday:      domain.IsBirthday(birth, ref),
		MinimumAge:      domain.MinimumAge,
		BirthDateSource: source,
		EvaluatedAt:     now,
		ReferenceDate:   ref,
	}
	if over {
		result.Status = models.StatusPass
		result.Reason = models.ReasonMeetsMinimumAge
	}
	span.SetAttributes(tracer.Bool(tracer.AttrOverMinimum, over))

	if over && s.attestor != nil {
		att, err := s.attestor.Issue(requestcontext.WithTime(ctx, now), result.ID, source.String())
		if err != nil {
			span.End(err)
			s.logger.ErrorContext(ctx, "failed to issue attestation",
				"verification_id", result.ID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue attestation")
		}
		result.Attestation = &models.Attestation{Token: att.Token, ID: att.ID, ExpiresAt: att.ExpiresAt}
		if s.metrics != nil {
			s.metrics.IncAttestationIssued()
		}
		s.emitAudit(ctx, audit.Event{
			VerificationID: result.ID,
			Action:         string(audit.EventAttestationIssued),
			Source:         source.String(),
		})
	}
	span.End(nil)

	if s.metrics != nil {
		s.metrics.IncOutcome(string(result.Status), source.String())
	}
	action := audit.EventAgeVerified
	if !over {
		action = audit.EventAgeVerificationFailed
	}
	s.emitAudit(ctx, audit.Event{
		VerificationID: result.ID,
		Action:         string(action),
		Source:         source.String(),
		Decision:       string(result.Status),
		Reason:         string(result.Reason),
	})
	return result, nil
}

// VerifyAttestation checks a token issued by this gateway.
//
// Errors: CodeNotImplemented when attestations are disabled; otherwise the
// attestor's CodeInvalidInput / CodeUnauthorized.
func (s *Service) VerifyAttestation(ctx context.Context, token string) (*models.AttestationClaims, error) {
	if s.attestor == nil {
		return nil, dErrors.New(dErrors.CodeNotImplemented, "attestations are disabled")
	}
	claims, err := s.attestor.Verify(ctx, token)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncAttestationVerified("invalid")
		}
		s.emitAudit(ctx, audit.Event{
			Action: string(audit.EventAttestationRejected),
			Reason: rejectionReason(err),
		})
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncAttestationVerified("valid")
	}

	out := &models.AttestationClaims{
		ID:             claims.ID,
		VerificationID: claims.VerificationID,
		AgeOver:        claims.AgeOver,
		Source:         models.Source(claims.Source),
		Issuer:         claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, event)
}

// referenceDate is the Asia/Tokyo civil date of now.
func referenceDate(now time.Time) domain.CalendarDate {
	return domain.DateOf(now.In(reader.Location))
}

func rejectionReason(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "invalid"
}
