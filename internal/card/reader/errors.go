package reader

import (
	"errors"
	"fmt"

	"inro/internal/card/apdu"
	dErrors "inro/pkg/domain-errors"
)

// ErrorKind classifies why a read attempt ended without a birth date.
// Every kind is terminal for the attempt; nothing is retried automatically.
type ErrorKind string

const (
	KindSessionInvalidated ErrorKind = "session_invalidated"
	KindTagNotFound        ErrorKind = "tag_not_found"
	KindUnsupportedCard    ErrorKind = "unsupported_card"
	KindCommunication      ErrorKind = "communication_error"
	KindParsing            ErrorKind = "parsing_error"
	KindNotSupported       ErrorKind = "not_supported"
)

var descriptions = map[ErrorKind]string{
	KindSessionInvalidated: "NFC session was invalidated",
	KindTagNotFound:        "No compatible tag found",
	KindUnsupportedCard:    "This card type is not supported",
	KindCommunication:      "Failed to communicate with card",
	KindParsing:            "Failed to parse card data",
	KindNotSupported:       "NFC is not supported on this platform",
}

// Description is the user-facing sentence for the kind.
func (k ErrorKind) Description() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return "Card read failed"
}

// Error is a typed card read failure. Op names the step that failed
// ("select", "read_binary", "parse", "detect"); SW is set when the card
// answered with a non-success status word.
type Error struct {
	Kind ErrorKind
	Op   string
	SW   apdu.StatusWord
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.SW != 0 {
		msg += fmt.Sprintf(" (sw %s)", e.SW)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode reports the kind as the public error string.
func (e *Error) ErrorCode() string { return string(e.Kind) }

// Is matches any *Error with the same Kind, so errors.Is(err, ErrParsing)
// works regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrSessionInvalidated = &Error{Kind: KindSessionInvalidated}
	ErrTagNotFound        = &Error{Kind: KindTagNotFound}
	ErrUnsupportedCard    = &Error{Kind: KindUnsupportedCard}
	ErrCommunication      = &Error{Kind: KindCommunication}
	ErrParsing            = &Error{Kind: KindParsing}
	ErrNotSupported       = &Error{Kind: KindNotSupported}
)

// NewError builds a typed error for op.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// DomainError converts a card failure to a transport-agnostic domain error so
// the HTTP layer can render it. Non-card errors are wrapped as internal.
func DomainError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "card read failed")
	}
	code := dErrors.CodeUnprocessable
	switch e.Kind {
	case KindSessionInvalidated:
		code = dErrors.CodeConflict
	case KindNotSupported:
		code = dErrors.CodeNotImplemented
	}
	return &dErrors.Error{Code: code, Message: e.Kind.Description(), Err: err}
}
