package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

type stubIdentityRepo struct {
	identities map[string]*domain.Identity
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{identities: make(map[string]*domain.Identity)}
}

func (r *stubIdentityRepo) Create(_ context.Context, id *domain.Identity) error {
	if _, exists := r.identities[id.Email]; exists {
		return domain.ErrIdentityExists
	}
	clone := *id
	r.identities[id.Email] = &clone
	return nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	id, ok := r.identities[email]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	clone := *id
	return &clone, nil
}

type stubProvisioning struct {
	claims   *domain.Claims
	err      error
	resolved []string
}

func (p *stubProvisioning) ResolveClaims(_ context.Context, email string) (*domain.Claims, error) {
	p.resolved = append(p.resolved, email)
	return p.claims, p.err
}

func (p *stubProvisioning) CompleteSignup(_ context.Context, _ domain.Identity) error {
	return nil
}

type recordingDispatcher struct {
	enqueued []domain.Identity
}

func (d *recordingDispatcher) Enqueue(id domain.Identity) {
	d.enqueued = append(d.enqueued, id)
}

func TestSignup_WithInviteClaims(t *testing.T) {
	repo := newStubIdentityRepo()
	prov := &stubProvisioning{claims: &domain.Claims{TenantID: "t1", Role: domain.RoleTech}}
	disp := &recordingDispatcher{}
	svc := NewIdentityService(repo, prov, disp, "secret", time.Hour, zerolog.Nop())

	identity, err := svc.Signup(context.Background(), "A@B.com ", "s3cretpass")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if identity.Email != "a@b.com" {
		t.Fatalf("expected normalised email, got %q", identity.Email)
	}
	if identity.Claims.TenantID != "t1" || identity.Claims.Role != domain.RoleTech {
		t.Fatalf("claims not attached: %+v", identity.Claims)
	}
	if identity.PasswordHash == "s3cretpass" {
		t.Fatalf("expected password to be hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("s3cretpass")) != nil {
		t.Fatalf("stored hash does not match password")
	}
	if len(disp.enqueued) != 1 || disp.enqueued[0].ID != identity.ID {
		t.Fatalf("finalised identity not dispatched: %+v", disp.enqueued)
	}
}

func TestSignup_NoInvite(t *testing.T) {
	repo := newStubIdentityRepo()
	prov := &stubProvisioning{} // nil claims: no invite found
	disp := &recordingDispatcher{}
	svc := NewIdentityService(repo, prov, disp, "secret", time.Hour, zerolog.Nop())

	identity, err := svc.Signup(context.Background(), "owner@new.com", "s3cretpass")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if identity.Claims.TenantID != "" || identity.Claims.Role != "" {
		t.Fatalf("expected no claims, got %+v", identity.Claims)
	}
	if got := identity.Claims.EffectiveRole(); got != domain.RoleOwner {
		t.Fatalf("expected default owner role, got %q", got)
	}
	if len(disp.enqueued) != 1 {
		t.Fatalf("post-signup reaction not dispatched")
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := NewIdentityService(newStubIdentityRepo(), &stubProvisioning{}, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "", "longenough"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty email, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "not-an-email", "longenough"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "a@b.com", "short"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
}

func TestSignup_DuplicateEmailSkipsPreHook(t *testing.T) {
	repo := newStubIdentityRepo()
	_ = repo.Create(context.Background(), &domain.Identity{ID: "u1", Email: "a@b.com"})
	prov := &stubProvisioning{}
	svc := NewIdentityService(repo, prov, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "a@b.com", "s3cretpass"); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists, got %v", err)
	}
	if len(prov.resolved) != 0 {
		t.Fatalf("pre-hook must not run for a known-duplicate email")
	}
}

func TestSignup_FailsClosedOnPreHookError(t *testing.T) {
	repo := newStubIdentityRepo()
	prov := &stubProvisioning{err: errors.New("store unavailable")}
	disp := &recordingDispatcher{}
	svc := NewIdentityService(repo, prov, disp, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "a@b.com", "s3cretpass"); err == nil {
		t.Fatalf("expected pre-hook failure to abort signup")
	}
	if len(repo.identities) != 0 {
		t.Fatalf("no identity may be created when claims plumbing fails")
	}
	if len(disp.enqueued) != 0 {
		t.Fatalf("nothing may be dispatched for an aborted signup")
	}
}

func TestSignup_ConsumptionConflictPropagates(t *testing.T) {
	prov := &stubProvisioning{err: domain.ErrInviteConsumed}
	svc := NewIdentityService(newStubIdentityRepo(), prov, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "a@b.com", "s3cretpass"); !errors.Is(err, domain.ErrInviteConsumed) {
		t.Fatalf("expected ErrInviteConsumed, got %v", err)
	}
}

func TestLogin_TokenCarriesClaims(t *testing.T) {
	repo := newStubIdentityRepo()
	prov := &stubProvisioning{claims: &domain.Claims{TenantID: "t1", Role: domain.RoleDispatcher}}
	svc := NewIdentityService(repo, prov, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "carol@b.com", "s3cretpass"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	token, identity, err := svc.Login(context.Background(), "carol@b.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if identity == nil || token == "" {
		t.Fatalf("expected token and identity")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["tenant_id"] != "t1" || claims["role"] != domain.RoleDispatcher {
		t.Fatalf("unexpected token claims: %+v", claims)
	}
}

func TestLogin_OwnerDefaultRole(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, &stubProvisioning{}, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "owner@new.com", "s3cretpass"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	token, _, err := svc.Login(context.Background(), "owner@new.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["role"] != domain.RoleOwner {
		t.Fatalf("expected default owner role in token, got %v", claims["role"])
	}
	if claims["tenant_id"] != "" {
		t.Fatalf("expected empty tenant for bootstrap owner, got %v", claims["tenant_id"])
	}
}

func TestLogin_InvalidPassword(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := NewIdentityService(repo, &stubProvisioning{}, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "dave@b.com", "goodpassword"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dave@b.com", "badpassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewIdentityService(newStubIdentityRepo(), &stubProvisioning{}, &recordingDispatcher{}, "secret", time.Hour, zerolog.Nop())

	if _, _, err := svc.Login(context.Background(), "ghost@b.com", "whatever"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}
