package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

// SignupDedup abstracts the idempotency store guarding the post-signup
// reaction against redelivery (Redis).
type SignupDedup interface {
	IsDuplicate(ctx context.Context, identityID string) (bool, error)
	Mark(ctx context.Context, identityID string) error
}

type provisioningService struct {
	invites ports.InviteRepository
	members ports.MemberRepository
	dedup   SignupDedup
	now     func() time.Time
	log     zerolog.Logger
}

// NewProvisioningService returns the ProvisioningService implementation.
func NewProvisioningService(
	invites ports.InviteRepository,
	members ports.MemberRepository,
	dedup SignupDedup,
	log zerolog.Logger,
) ports.ProvisioningService {
	return &provisioningService{
		invites: invites,
		members: members,
		dedup:   dedup,
		now:     time.Now,
		log:     log,
	}
}

// ResolveClaims is the pre-create hook. It consumes the earliest pending,
// unexpired invitation for email and returns its claims, or nil claims when
// no invitation matches (owner-bootstrap candidate). Consumption is a
// conditional write: two signups racing for the same invite cannot both win,
// the loser aborts with domain.ErrInviteConsumed.
func (s *provisioningService) ResolveClaims(ctx context.Context, email string) (*domain.Claims, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	inv, err := s.invites.FindPending(ctx, email, s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			s.log.Debug().Str("email", email).Msg("no pending invite, signup proceeds unprivileged")
			return nil, nil
		}
		return nil, fmt.Errorf("resolve claims: %w", err)
	}

	if err := s.invites.Consume(ctx, inv.ID); err != nil {
		if errors.Is(err, domain.ErrInviteConsumed) {
			s.log.Warn().Str("invite_id", inv.ID).Msg("lost invite consumption race")
			return nil, err
		}
		return nil, fmt.Errorf("resolve claims: consume invite: %w", err)
	}

	s.log.Info().
		Str("invite_id", inv.ID).
		Str("tenant_id", inv.TenantID).
		Str("role", inv.Role).
		Msg("invite consumed, claims resolved")

	return &domain.Claims{TenantID: inv.TenantID, Role: inv.Role}, nil
}

// CompleteSignup is the post-create reaction. It is invoked at least once
// per identity, so the redis guard plus upsert semantics keep redelivery
// harmless.
func (s *provisioningService) CompleteSignup(ctx context.Context, id domain.Identity) error {
	isDup, err := s.dedup.IsDuplicate(ctx, id.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("identity_id", id.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("identity_id", id.ID).Msg("duplicate post-signup event skipped")
		return nil
	}

	claims := id.Claims
	switch {
	case claims.TenantID != "":
		member := &domain.Member{
			UserID:    id.ID,
			TenantID:  claims.TenantID,
			Email:     id.Email,
			Role:      claims.Role,
			Status:    domain.MemberActive,
			InvitedAt: s.now().UTC(),
		}
		if err := s.members.UpsertMember(ctx, member); err != nil {
			return fmt.Errorf("complete signup: upsert member: %w", err)
		}
		s.log.Info().
			Str("identity_id", id.ID).
			Str("tenant_id", claims.TenantID).
			Str("role", claims.Role).
			Msg("tenant membership recorded")

	case claims.EffectiveRole() == domain.RoleOwner:
		profile := &domain.OwnerProfile{
			UserID:    id.ID,
			Email:     id.Email,
			Role:      domain.RoleOwner,
			Status:    domain.MemberActive,
			CreatedAt: s.now().UTC(),
		}
		if err := s.members.CreateOwnerProfile(ctx, profile); err != nil {
			return fmt.Errorf("complete signup: create owner profile: %w", err)
		}
		s.log.Info().Str("identity_id", id.ID).Msg("owner profile recorded, tenant pending")

	default:
		// No corrective write is well-defined here; report and move on.
		s.log.Error().
			Str("identity_id", id.ID).
			Str("role", claims.Role).
			Err(domain.ErrInconsistentClaims).
			Msg("identity created with a role but no tenant")
		return nil
	}

	if err := s.dedup.Mark(ctx, id.ID); err != nil {
		s.log.Warn().Err(err).Str("identity_id", id.ID).Msg("failed to set dedup key")
	}
	return nil
}
