package domain

import (
	"strings"
	"time"
)

// Permission is an atomic (resource, action) capability such as article.list.
type Permission struct {
	ID          int64
	Resource    string
	Action      string
	Description *string
}

// Name renders the permission atom as resource.action.
func (p Permission) Name() string {
	return p.Resource + "." + p.Action
}

// Role bundles permissions. Display names are not unique.
type Role struct {
	ID          int64
	DisplayName string
	Description *string
	Preset      bool
	CreatedAt   time.Time
}

// RolePermission links a role with a permission.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID    int64
	RoleID    int64
	GrantedAt time.Time
	GrantedBy *int64
}

// Endpoint is one protected operation, identified verbatim by path and method.
type Endpoint struct {
	ID          int64
	Path        string
	Method      string
	Description *string
}

// EndpointPermission links an endpoint with a permission it requires.
type EndpointPermission struct {
	EndpointID   int64
	PermissionID int64
}

// AdminGrant marks a user as holding administrative access directly.
type AdminGrant struct {
	UserID    int64
	GrantedAt time.Time
	GrantedBy *int64
}

// NormalizeMethod upper-cases and trims an HTTP method.
func NormalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

// NormalizePath trims surrounding whitespace. Paths are otherwise matched verbatim.
func NormalizePath(path string) string {
	return strings.TrimSpace(path)
}
