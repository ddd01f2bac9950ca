package ports

import (
	"context"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// IdentityRepository defines persistence for identity records.
type IdentityRepository interface {
	// Create inserts a new identity. A duplicate email returns
	// domain.ErrIdentityExists.
	Create(ctx context.Context, id *domain.Identity) error
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
}

// MemberRepository is the write target of the post-signup reaction.
type MemberRepository interface {
	// UpsertMember writes the tenant-scoped membership document, keyed by
	// (tenant_id, user_id). Upsert makes redelivery of the post-signup event
	// harmless.
	UpsertMember(ctx context.Context, m *domain.Member) error

	// CreateOwnerProfile writes the unscoped profile for an owner-bootstrap
	// signup.
	CreateOwnerProfile(ctx context.Context, p *domain.OwnerProfile) error
}
