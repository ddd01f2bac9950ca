package domain

// Tenant roles. Owner is never invitable: it is only assigned through the
// bootstrap path when a signup matches no invitation.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleTech       = "tech"
	RoleAccountant = "accountant"
)

var invitableRoles = map[string]struct{}{
	RoleAdmin:      {},
	RoleDispatcher: {},
	RoleTech:       {},
	RoleAccountant: {},
}

// IsInvitableRole reports whether role may appear on an invitation.
func IsInvitableRole(role string) bool {
	_, ok := invitableRoles[role]
	return ok
}

// CanInvite reports whether an actor holding role is allowed to create
// invitations for their tenant.
func CanInvite(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
