// Package metrics defines and registers all custom Prometheus metrics for
// the contractor provisioning API. It is the single source of truth for
// metric names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time and
// are exposed through the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contractor"

// ── Invite metrics ────────────────────────────────────────────────────────────

// InvitesCreatedTotal counts persisted invitations.
// Label:
//   - role: the role the invitation grants (e.g. "tech")
var InvitesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_created_total",
		Help:      "Total number of invitations created, by granted role.",
	},
	[]string{"role"},
)

// InvitesRejectedTotal counts invite-creation requests rejected before any
// write.
// Label:
//   - reason: "permission_denied" or "validation"
var InvitesRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_rejected_total",
		Help:      "Total number of invite-creation requests rejected without persisting.",
	},
	[]string{"reason"},
)

// ── Provisioning metrics ──────────────────────────────────────────────────────

// ClaimsResolvedTotal counts pre-signup claim resolutions.
// Label:
//   - outcome: "invite_consumed", "no_invite", "conflict", or "error"
var ClaimsResolvedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claims_resolved_total",
		Help:      "Total number of pre-signup claim resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// ProvisioningTotal counts completed post-signup reactions.
// Label:
//   - path: "member", "owner_bootstrap", or "inconsistent"
var ProvisioningTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_total",
		Help:      "Total number of completed post-signup reactions, by path taken.",
	},
	[]string{"path"},
)

// ProvisioningErrorsTotal counts provisioning steps that failed.
// Label:
//   - stage: "pre_signup" or "post_signup"
var ProvisioningErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_errors_total",
		Help:      "Total number of provisioning hook failures, by stage.",
	},
	[]string{"stage"},
)

// SignupQueueDepth tracks the number of identities waiting in each
// post-signup worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SignupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "signup_queue_depth",
		Help:      "Current number of identities pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
