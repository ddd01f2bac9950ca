package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

type inviteService struct {
	repo   ports.InviteRepository
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewInviteService returns an InviteService with the given invite TTL.
// If ttl <= 0, the default 7-day window is used.
func NewInviteService(repo ports.InviteRepository, ttl time.Duration, logger zerolog.Logger) ports.InviteService {
	if ttl <= 0 {
		ttl = domain.InviteTTL
	}
	return &inviteService{repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

// CreateInvite gates on the caller's claims before touching the store:
// only owners and admins may invite, and a denied or malformed request must
// persist nothing.
func (s *inviteService) CreateInvite(ctx context.Context, in ports.CreateInviteInput) (*domain.Invitation, error) {
	if !domain.CanInvite(in.Caller.Role) {
		s.logger.Warn().
			Str("caller_role", in.Caller.Role).
			Str("tenant_id", in.TenantID).
			Msg("invite creation denied")
		return nil, domain.ErrPermissionDenied
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrValidation)
	}
	if !domain.IsInvitableRole(in.Role) {
		return nil, fmt.Errorf("%w: role must be one of admin, dispatcher, tech, accountant", domain.ErrValidation)
	}
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}

	now := s.now().UTC()
	inv := &domain.Invitation{
		Email:     email,
		TenantID:  in.TenantID,
		Role:      in.Role,
		Status:    domain.InvitePending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", in.TenantID).Msg("failed to persist invite")
		return nil, err
	}
	inv.ID = id

	s.logger.Info().
		Str("invite_id", id).
		Str("tenant_id", in.TenantID).
		Str("role", in.Role).
		Time("expires_at", inv.ExpiresAt).
		Msg("invite created")

	return inv, nil
}
