package ports

import (
	"context"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// IdentityService implements signup and login.
type IdentityService interface {
	// Signup creates a new identity, running the provisioning pre-hook to
	// attach claims before the record is written and dispatching the
	// post-signup reaction once it is durable.
	Signup(ctx context.Context, email, password string) (*domain.Identity, error)

	// Login verifies credentials and returns a signed token carrying the
	// identity's claims.
	Login(ctx context.Context, email, password string) (string, *domain.Identity, error)
}
