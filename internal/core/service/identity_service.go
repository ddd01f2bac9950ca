package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/contractor-api/internal/core/domain"
	"github.com/fieldops/contractor-api/internal/core/ports"
)

const minPasswordLength = 8

// SignupDispatcher is the interface the identity service uses to hand a
// finalised identity to the post-signup reaction.
type SignupDispatcher interface {
	Enqueue(id domain.Identity)
}

// IdentityService implements signup and login. Signup hosts both
// provisioning hooks: ResolveClaims gates the write (fail closed), the
// dispatcher fires the post-signup reaction once the record is durable.
type IdentityService struct {
	repo         ports.IdentityRepository
	provisioning ports.ProvisioningService
	dispatcher   SignupDispatcher
	jwtSecret    string
	tokenTTL     time.Duration
	logger       zerolog.Logger
}

func NewIdentityService(
	repo ports.IdentityRepository,
	provisioning ports.ProvisioningService,
	dispatcher SignupDispatcher,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{
		repo:         repo,
		provisioning: provisioning,
		dispatcher:   dispatcher,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

func (s *IdentityService) Signup(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	// Cheap existence check before the pre-hook so an obviously doomed
	// signup does not consume an invitation. The unique index on email is
	// still the authority under concurrency.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrIdentityExists
	} else if err != domain.ErrIdentityNotFound {
		return nil, fmt.Errorf("signup: %w", err)
	}

	// Pre-create hook. Any failure here aborts the signup: an invited email
	// must never end up with a claim-less account.
	claims, err := s.provisioning.ResolveClaims(ctx, email)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	identity := &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if claims != nil {
		identity.Claims = *claims
	}

	if err := s.repo.Create(ctx, identity); err != nil {
		if err == domain.ErrIdentityExists && claims != nil {
			// The invite was consumed but the account lost a duplicate-email
			// race. Surface the conflict; the consumed invite stays accepted.
			s.logger.Warn().Str("email", email).Msg("identity write conflict after invite consumption")
		}
		return nil, err
	}

	s.logger.Info().
		Str("identity_id", identity.ID).
		Str("tenant_id", identity.Claims.TenantID).
		Str("role", identity.Claims.EffectiveRole()).
		Bool("invited", claims != nil).
		Msg("identity created")

	// Post-create reaction, fired only once the record is durable.
	s.dispatcher.Enqueue(*identity)

	return identity, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (string, *domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(identity)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

func (s *IdentityService) generateToken(id *domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"uid":       id.ID,
		"email":     id.Email,
		"tenant_id": id.Claims.TenantID,
		"role":      id.Claims.EffectiveRole(),
		"exp":       time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
