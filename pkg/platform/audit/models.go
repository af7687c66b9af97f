package audit

import (
	"time"

	"inro/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. It never carries the
// birth date itself, only what was derived from it.
type Event struct {
	Timestamp      time.Time
	VerificationID domain.VerificationID
	Action         string
	Source         string
	Decision       string
	Reason         string
	ErrorKind      string
	ClientPlatform string
	RequestID      string
}

type AuditEvent string

const (
	EventAgeVerified           AuditEvent = "age_verified"
	EventAgeVerificationFailed AuditEvent = "age_verification_failed"
	EventCardReadFailed        AuditEvent = "card_read_failed"
	EventAttestationIssued     AuditEvent = "attestation_issued"
	EventAttestationRejected   AuditEvent = "attestation_rejected"
)

// Category groups events for retention and alerting.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

// Category maps an event to its category. Unknown events are operational.
func (e AuditEvent) Category() Category {
	switch e {
	case EventAgeVerified, EventAgeVerificationFailed, EventAttestationIssued:
		return CategoryCompliance
	case EventAttestationRejected:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}
