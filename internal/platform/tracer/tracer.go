// Package tracer is a small tracing seam over OpenTelemetry. Card exchanges and
// verification runs open spans through it so tests can run with NewNoop.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Duration records a duration in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanCardSession  = "card.session"
	SpanCardSelect   = "card.select"
	SpanCardRead     = "card.read_binary"
	SpanVerification = "verification.evaluate"
)

// Attribute keys. Birth dates are never attached to spans.
const (
	AttrStatusWord   = "apdu.sw"
	AttrResponseLen  = "apdu.response_len"
	AttrErrorKind    = "card.error_kind"
	AttrSource       = "verification.source"
	AttrOverMinimum  = "verification.over_minimum_age"
	AttrInvalidation = "card.invalidation_reason"
)

// Event names.
const (
	EventOutcomeDelivered = "card.outcome_delivered"
)
