package ports

import (
	"context"
	"time"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// InviteRepository defines persistence operations for invitations.
type InviteRepository interface {
	// Create inserts a new pending invitation and returns its store-assigned
	// identifier. No uniqueness is enforced: duplicate pendings for the same
	// (tenant, email) pair are allowed.
	Create(ctx context.Context, inv *domain.Invitation) (string, error)

	// FindPending returns the earliest-created pending invitation for email
	// whose expiry is strictly after now, or domain.ErrInviteNotFound.
	// Email comparison is on the lower-cased address.
	FindPending(ctx context.Context, email string, now time.Time) (*domain.Invitation, error)

	// Consume marks the invitation accepted, conditional on it still being
	// pending. A lost race or a re-consumption returns domain.ErrInviteConsumed.
	Consume(ctx context.Context, id string) error
}
