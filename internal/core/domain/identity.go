package domain

import "time"

// User mirrors the persisted user record. IDs are supplied by the identity provider.
type User struct {
	ID          int64
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

// SessionUser is the identity attached to an authenticated request.
type SessionUser struct {
	UserID         int64
	DisplayName    string
	Email          string
	HasAdminAccess bool
}

// AdminPermissionNames is the allow-list of admin-shaped permission atoms.
// Holding any of them through a role grants admin access.
var AdminPermissionNames = []string{
	"user.list",
	"user.grant_admin",
	"privacy_policy.create",
	"privacy_policy.update",
	"privacy_policy.delete",
}

// AdminStrategy selects how the admin flag of a SessionUser is derived.
type AdminStrategy string

const (
	// AdminStrategyPermissions derives admin access from role permissions.
	AdminStrategyPermissions AdminStrategy = "permissions"
	// AdminStrategyGrant derives admin access from a dedicated admin grant row.
	AdminStrategyGrant AdminStrategy = "grant"
)
