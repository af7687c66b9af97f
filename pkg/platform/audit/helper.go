package audit

import (
	"context"
	"log/slog"

	"inro/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger provides structured audit logging with optional event emission.
// Use this in services to standardize audit logging patterns.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger.
// textLogger is used for structured logging; emitter is optional for event persistence.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log writes the event as an audit log line and emits it. Request id and
// client platform are filled from ctx when unset. Emission is best-effort:
// failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientPlatform == "" {
		event.ClientPlatform = requestcontext.ClientPlatform(ctx)
	}

	l.logToText(ctx, event)
	l.emitToAudit(ctx, event)
}

func (l *Logger) logToText(ctx context.Context, event Event) {
	if l.textLogger == nil {
		return
	}
	args := []any{
		"event", event.Action,
		"log_type", "audit",
		"category", string(AuditEvent(event.Action).Category()),
		"client_platform", event.ClientPlatform,
	}
	if !event.VerificationID.IsNil() {
		args = append(args, "verification_id", event.VerificationID.String())
	}
	for _, kv := range [][2]string{
		{"source", event.Source},
		{"decision", event.Decision},
		{"reason", event.Reason},
		{"error_kind", event.ErrorKind},
		{"request_id", event.RequestID},
	} {
		if kv[1] != "" {
			args = append(args, kv[0], kv[1])
		}
	}
	l.textLogger.InfoContext(ctx, event.Action, args...)
}

func (l *Logger) emitToAudit(ctx context.Context, event Event) {
	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", event.Action,
		)
	}
}
