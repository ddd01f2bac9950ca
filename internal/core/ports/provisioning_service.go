package ports

import (
	"context"

	"github.com/fieldops/contractor-api/internal/core/domain"
)

// ProvisioningService hosts the two identity-lifecycle hooks of the
// invite-and-claims workflow.
//
// ResolveClaims runs before the identity record is written and gates its
// creation: a store failure or a consumption conflict must abort the signup
// (fail closed) rather than produce a claim-less account for an invited
// email. CompleteSignup runs after the record is durable and is invoked
// at least once per identity.
type ProvisioningService interface {
	// ResolveClaims looks up a pending, unexpired invitation for email.
	// Outcomes:
	//   - invite found: it is marked accepted and its {tenant, role} pair is
	//     returned for attachment to the new identity.
	//   - no invite: nil claims, the signup proceeds unprivileged and the
	//     post-signup reaction decides owner-vs-member bookkeeping.
	//   - empty email: domain.ErrValidation, signup rejected.
	ResolveClaims(ctx context.Context, email string) (*domain.Claims, error)

	// CompleteSignup writes the membership or owner-profile document for a
	// finalised identity. Safe to redeliver.
	CompleteSignup(ctx context.Context, id domain.Identity) error
}
