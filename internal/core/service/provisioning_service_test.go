package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

type stubMemberRepo struct {
	members  []*domain.Member
	profiles []*domain.OwnerProfile
}

func (r *stubMemberRepo) UpsertMember(_ context.Context, m *domain.Member) error {
	for i, existing := range r.members {
		if existing.TenantID == m.TenantID && existing.UserID == m.UserID {
			r.members[i] = m
			return nil
		}
	}
	r.members = append(r.members, m)
	return nil
}

func (r *stubMemberRepo) CreateOwnerProfile(_ context.Context, p *domain.OwnerProfile) error {
	r.profiles = append(r.profiles, p)
	return nil
}

type stubDedup struct {
	seen map[string]bool
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, id string) (bool, error) { return d.seen[id], nil }
func (d *stubDedup) Mark(_ context.Context, id string) error                { d.seen[id] = true; return nil }

func newTestProvisioning(invites *stubInviteRepo, members *stubMemberRepo, at time.Time) *provisioningService {
	svc := NewProvisioningService(invites, members, newStubDedup(), zerolog.Nop()).(*provisioningService)
	svc.now = func() time.Time { return at }
	return svc
}

func seedInvite(t *testing.T, repo *stubInviteRepo, email, role, tenant string, created time.Time) string {
	t.Helper()
	id, err := repo.Create(context.Background(), &domain.Invitation{
		Email:     email,
		TenantID:  tenant,
		Role:      role,
		Status:    domain.InvitePending,
		CreatedAt: created,
		ExpiresAt: created.Add(domain.InviteTTL),
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	return id
}

func TestResolveClaims_InviteConsumed(t *testing.T) {
	invites := newStubInviteRepo()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedInvite(t, invites, "a@b.com", domain.RoleTech, "t1", createdAt)

	// Signup one hour after the invite was created.
	svc := newTestProvisioning(invites, &stubMemberRepo{}, createdAt.Add(time.Hour))

	claims, err := svc.ResolveClaims(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ResolveClaims returned error: %v", err)
	}
	if claims == nil || claims.TenantID != "t1" || claims.Role != domain.RoleTech {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if invites.invites[0].Status != domain.InviteAccepted {
		t.Fatalf("expected invite accepted, got %s", invites.invites[0].Status)
	}
}

func TestResolveClaims_NoInvite(t *testing.T) {
	svc := newTestProvisioning(newStubInviteRepo(), &stubMemberRepo{}, time.Now().UTC())

	claims, err := svc.ResolveClaims(context.Background(), "owner@new.com")
	if err != nil {
		t.Fatalf("ResolveClaims returned error: %v", err)
	}
	if claims != nil {
		t.Fatalf("expected nil claims on the bootstrap path, got %+v", claims)
	}
}

func TestResolveClaims_ExpiredInviteIgnored(t *testing.T) {
	invites := newStubInviteRepo()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedInvite(t, invites, "a@b.com", domain.RoleTech, "t1", createdAt)

	// Signup eight days later: past the 7-day window.
	svc := newTestProvisioning(invites, &stubMemberRepo{}, createdAt.Add(8*24*time.Hour))

	claims, err := svc.ResolveClaims(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ResolveClaims returned error: %v", err)
	}
	if claims != nil {
		t.Fatalf("expired invite must not grant claims, got %+v", claims)
	}
	if invites.invites[0].Status != domain.InvitePending {
		t.Fatalf("expired invite must never be mutated, got %s", invites.invites[0].Status)
	}
}

func TestResolveClaims_EmptyEmail(t *testing.T) {
	svc := newTestProvisioning(newStubInviteRepo(), &stubMemberRepo{}, time.Now().UTC())

	if _, err := svc.ResolveClaims(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveClaims_EarliestPendingWins(t *testing.T) {
	invites := newStubInviteRepo()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedInvite(t, invites, "a@b.com", domain.RoleAccountant, "t2", base.Add(time.Hour))
	first := seedInvite(t, invites, "a@b.com", domain.RoleTech, "t1", base)

	svc := newTestProvisioning(invites, &stubMemberRepo{}, base.Add(2*time.Hour))

	claims, err := svc.ResolveClaims(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ResolveClaims returned error: %v", err)
	}
	if claims.TenantID != "t1" || claims.Role != domain.RoleTech {
		t.Fatalf("expected earliest invite %s to win, got %+v", first, claims)
	}
}

// raceInviteRepo simulates two signups that both read the same pending
// invite before either consumes it: FindPending keeps returning the invite,
// Consume succeeds exactly once.
type raceInviteRepo struct {
	invite   domain.Invitation
	consumed bool
}

func (r *raceInviteRepo) Create(_ context.Context, _ *domain.Invitation) (string, error) {
	return "", errors.New("not implemented")
}

func (r *raceInviteRepo) FindPending(_ context.Context, email string, _ time.Time) (*domain.Invitation, error) {
	if r.invite.Email != email {
		return nil, domain.ErrInviteNotFound
	}
	clone := r.invite
	return &clone, nil
}

func (r *raceInviteRepo) Consume(_ context.Context, id string) error {
	if r.consumed {
		return domain.ErrInviteConsumed
	}
	r.consumed = true
	return nil
}

func TestResolveClaims_ConsumptionRaceRejectsLoser(t *testing.T) {
	repo := &raceInviteRepo{invite: domain.Invitation{
		ID:        "inv_1",
		Email:     "a@b.com",
		TenantID:  "t1",
		Role:      domain.RoleTech,
		Status:    domain.InvitePending,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(domain.InviteTTL),
	}}
	svc := NewProvisioningService(repo, &stubMemberRepo{}, newStubDedup(), zerolog.Nop())

	claims, err := svc.ResolveClaims(context.Background(), "a@b.com")
	if err != nil || claims == nil {
		t.Fatalf("first consumer should win: claims=%+v err=%v", claims, err)
	}

	if _, err := svc.ResolveClaims(context.Background(), "a@b.com"); !errors.Is(err, domain.ErrInviteConsumed) {
		t.Fatalf("losing consumer must get ErrInviteConsumed, got %v", err)
	}
}

func TestCompleteSignup_MemberPath(t *testing.T) {
	members := &stubMemberRepo{}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestProvisioning(newStubInviteRepo(), members, at)

	identity := domain.Identity{
		ID:     "u1",
		Email:  "a@b.com",
		Claims: domain.Claims{TenantID: "t1", Role: domain.RoleTech},
	}
	if err := svc.CompleteSignup(context.Background(), identity); err != nil {
		t.Fatalf("CompleteSignup returned error: %v", err)
	}

	if len(members.members) != 1 || len(members.profiles) != 0 {
		t.Fatalf("expected one member and no profiles, got %d/%d", len(members.members), len(members.profiles))
	}
	m := members.members[0]
	if m.TenantID != "t1" || m.Role != domain.RoleTech || m.Status != domain.MemberActive {
		t.Fatalf("unexpected member: %+v", m)
	}
	if !m.InvitedAt.Equal(at) {
		t.Fatalf("expected invited_at %v, got %v", at, m.InvitedAt)
	}
}

func TestCompleteSignup_OwnerBootstrapPath(t *testing.T) {
	members := &stubMemberRepo{}
	svc := newTestProvisioning(newStubInviteRepo(), members, time.Now().UTC())

	identity := domain.Identity{ID: "u2", Email: "owner@new.com"}
	if err := svc.CompleteSignup(context.Background(), identity); err != nil {
		t.Fatalf("CompleteSignup returned error: %v", err)
	}

	if len(members.profiles) != 1 || len(members.members) != 0 {
		t.Fatalf("expected one owner profile and no members, got %d/%d", len(members.profiles), len(members.members))
	}
	p := members.profiles[0]
	if p.Role != domain.RoleOwner || p.Status != domain.MemberActive {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestCompleteSignup_InconsistentClaims(t *testing.T) {
	members := &stubMemberRepo{}
	svc := newTestProvisioning(newStubInviteRepo(), members, time.Now().UTC())

	identity := domain.Identity{
		ID:     "u3",
		Email:  "odd@b.com",
		Claims: domain.Claims{Role: domain.RoleTech}, // role but no tenant
	}
	if err := svc.CompleteSignup(context.Background(), identity); err != nil {
		t.Fatalf("inconsistent claims are reported, not returned: %v", err)
	}
	if len(members.members) != 0 || len(members.profiles) != 0 {
		t.Fatalf("inconsistent claims must write nothing")
	}
}

func TestCompleteSignup_RedeliverySkipped(t *testing.T) {
	members := &stubMemberRepo{}
	dedup := newStubDedup()
	svc := NewProvisioningService(newStubInviteRepo(), members, dedup, zerolog.Nop())

	identity := domain.Identity{
		ID:     "u4",
		Email:  "a@b.com",
		Claims: domain.Claims{TenantID: "t1", Role: domain.RoleTech},
	}
	if err := svc.CompleteSignup(context.Background(), identity); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := svc.CompleteSignup(context.Background(), identity); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if len(members.members) != 1 {
		t.Fatalf("expected a single member after redelivery, got %d", len(members.members))
	}
}
