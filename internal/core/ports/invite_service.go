package ports

import (
	"context"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// CreateInviteInput carries an invite-creation request plus the claims of
// the caller, as decoded from their bearer token.
type CreateInviteInput struct {
	Email    string
	Role     string
	TenantID string
	Caller   domain.Claims
}

// InviteService creates invitations on behalf of authorised tenant actors.
type InviteService interface {
	// CreateInvite authorises the caller (owner or admin), validates the
	// request and persists a pending invitation for the requested tenant.
	// Nothing is persisted on authorisation or validation failure.
	CreateInvite(ctx context.Context, in CreateInviteInput) (*domain.Invitation, error)
}
