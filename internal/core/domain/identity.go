package domain

import (
	"errors"
	"time"
)

var ErrIdentityExists = errors.New("identity already exists")
var ErrIdentityNotFound = errors.New("identity not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInconsistentClaims = errors.New("identity has a role but no tenant")

// Claims are the authorisation attributes attached to an identity at
// creation time and embedded in every token issued afterwards. Both fields
// are empty for an owner-bootstrap signup until the tenant is provisioned by
// a separate flow.
type Claims struct {
	TenantID string `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	Role     string `json:"role,omitempty" bson:"role,omitempty"`
}

// EffectiveRole resolves the role carried by the claims. An identity with no
// tenant and no explicit role is treated as a prospective owner.
func (c Claims) EffectiveRole() string {
	if c.Role == "" && c.TenantID == "" {
		return RoleOwner
	}
	return c.Role
}

// Inconsistent reports the one claim shape with no well-defined handling: a
// non-owner role without a tenant to scope it to.
func (c Claims) Inconsistent() bool {
	return c.TenantID == "" && c.Role != "" && c.Role != RoleOwner
}

// Identity models an authenticated account. Claims are written exactly once,
// during signup, and are immutable afterwards.
type Identity struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Claims       Claims    `json:"claims" bson:"claims"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Member is the tenant-scoped membership document written by the
// post-signup reaction when the new identity carries tenant claims.
type Member struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	TenantID  string    `json:"tenant_id" bson:"tenant_id"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	Status    string    `json:"status" bson:"status"`
	InvitedAt time.Time `json:"invited_at" bson:"invited_at"`
}

// OwnerProfile is the unscoped profile written for an owner-bootstrap
// signup. The tenant itself is provisioned later by a separate flow.
type OwnerProfile struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// MemberActive is the status stamped on membership and profile documents
// created by provisioning.
const MemberActive = "active"
