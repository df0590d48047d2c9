package usecase

import (
	"context"
	"fmt"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
)

// AdminAccessResolver derives the admin flag of an authenticated user.
type AdminAccessResolver interface {
	HasAdminAccess(ctx context.Context, userID int64) (bool, error)
}

// GrantRowAdminResolver grants admin access to users holding an admin grant row.
type GrantRowAdminResolver struct {
	grants port.AdminGrantRepository
}

// NewGrantRowAdminResolver constructs a GrantRowAdminResolver.
func NewGrantRowAdminResolver(grants port.AdminGrantRepository) *GrantRowAdminResolver {
	return &GrantRowAdminResolver{grants: grants}
}

// HasAdminAccess reports whether an admin grant row exists for the user.
func (r *GrantRowAdminResolver) HasAdminAccess(ctx context.Context, userID int64) (bool, error) {
	ok, err := r.grants.IsAdmin(ctx, userID)
	if err != nil {
		return false, domain.ErrServer("check admin grant", err)
	}
	return ok, nil
}

type effectivePermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) (domain.PermissionSet, error)
}

// PermissionAdminResolver grants admin access when any role-derived permission is on the allow-list.
type PermissionAdminResolver struct {
	source    effectivePermissionSource
	allowList []string
}

// NewPermissionAdminResolver constructs a resolver over domain.AdminPermissionNames.
func NewPermissionAdminResolver(source effectivePermissionSource) *PermissionAdminResolver {
	return &PermissionAdminResolver{source: source, allowList: domain.AdminPermissionNames}
}

// HasAdminAccess reports whether the user's effective set intersects the allow-list.
func (r *PermissionAdminResolver) HasAdminAccess(ctx context.Context, userID int64) (bool, error) {
	granted, err := r.source.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, name := range r.allowList {
		if granted.ContainsName(name) {
			return true, nil
		}
	}

	return false, nil
}

// NewAdminAccessResolver selects the resolver for strategy.
func NewAdminAccessResolver(strategy domain.AdminStrategy, grants port.AdminGrantRepository, source effectivePermissionSource) (AdminAccessResolver, error) {
	switch strategy {
	case domain.AdminStrategyPermissions, "":
		return NewPermissionAdminResolver(source), nil
	case domain.AdminStrategyGrant:
		return NewGrantRowAdminResolver(grants), nil
	default:
		return nil, fmt.Errorf("unknown admin strategy %q", strategy)
	}
}
