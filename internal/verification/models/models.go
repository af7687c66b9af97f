package models

import (
	"time"

	"inro/internal/card/relay"
	"inro/internal/card/session"
	"inro/pkg/domain"
)

// Status is the verdict of one verification.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Reason explains the verdict.
type Reason string

const (
	ReasonMeetsMinimumAge Reason = "meets_minimum_age"
	ReasonUnderage        Reason = "underage"
)

// Source says where the birth date came from.
type Source string

const (
	SourceCard   Source = "card"
	SourceManual Source = "manual"
)

func (s Source) String() string { return string(s) }

// Result is the outcome of a verification. It carries only attributes derived
// from the birth date, never the date itself.
type Result struct {
	ID              domain.VerificationID
	Status          Status
	Reason          Reason
	Age             int
	IsBirthday      bool
	MinimumAge      int
	BirthDateSource Source
	EvaluatedAt     time.Time
	// ReferenceDate is the Asia/Tokyo civil date the predicate ran against.
	ReferenceDate domain.CalendarDate
	Attestation   *Attestation
}

// Passed reports whether the subject met the minimum age.
func (r *Result) Passed() bool {
	return r != nil && r.Status == StatusPass
}

// Attestation is the signed proof issued for a passing result.
type Attestation struct {
	Token     string
	ID        domain.AttestationID
	ExpiresAt time.Time
}

// CardRequest is a relayed card read: the tag the client detected and the
// APDU exchanges it performed against it.
type CardRequest struct {
	TagType   session.TagType
	Exchanges []relay.Exchange
}

// AttestationClaims is the verified content of an attestation token.
type AttestationClaims struct {
	ID             string
	VerificationID string
	AgeOver        int
	Source         Source
	Issuer         string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// Capabilities describes what the gateway can do right now.
type Capabilities struct {
	NFCAvailable        bool
	MinimumAge          int
	AlertMessage        string
	AttestationsEnabled bool
}
