package audit

import (
	"context"

	"inro/pkg/domain"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVerification(ctx context.Context, id domain.VerificationID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
