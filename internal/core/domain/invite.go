package domain

import (
	"errors"
	"time"
)

// InviteStatus represents the lifecycle state of an invitation.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
)

// InviteTTL is how long an invitation stays redeemable after creation.
const InviteTTL = 7 * 24 * time.Hour

var ErrValidation = errors.New("validation failed")
var ErrPermissionDenied = errors.New("permission denied")
var ErrInviteNotFound = errors.New("invite not found")
var ErrInviteConsumed = errors.New("invite already consumed")

// Invitation authorises a specific email address to join a specific tenant
// with a specific role, for a bounded time window. Duplicate pending invites
// for the same (tenant, email) pair are allowed at write time; consumption
// always picks the earliest pending unexpired match.
type Invitation struct {
	ID        string       `json:"id" bson:"_id,omitempty"`
	Email     string       `json:"email" bson:"email"`
	TenantID  string       `json:"tenant_id" bson:"tenant_id"`
	Role      string       `json:"role" bson:"role"`
	Status    InviteStatus `json:"status" bson:"status"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time    `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the invitation is past its expiry at the given
// instant. Expired invites are filtered at read time, never reclaimed.
func (i *Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
