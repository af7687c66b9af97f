// Package domain holds the value types shared by every layer: type-safe
// identifiers and the civil-date age predicate.
package domain

import (
	"github.com/google/uuid"

	dErrors "inro/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a VerificationID where an
// AttestationID is expected.
type (
	VerificationID uuid.UUID
	AttestationID  uuid.UUID
)

// NewVerificationID returns a random verification identifier.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewAttestationID returns a random attestation identifier.
func NewAttestationID() AttestationID { return AttestationID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, token claims).

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

func ParseAttestationID(s string) (AttestationID, error) {
	id, err := parseUUID(s, "attestation ID")
	return AttestationID(id), err
}

func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id AttestationID) String() string  { return uuid.UUID(id).String() }

func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AttestationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
