package usecase

import (
	"context"
	"errors"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// PermissionResolver computes granted and required permission sets from the policy store.
type PermissionResolver struct {
	roles       port.RoleRepository
	permissions port.PermissionRepository
	endpoints   port.EndpointRepository
}

// NewPermissionResolver constructs a PermissionResolver.
func NewPermissionResolver(roles port.RoleRepository, permissions port.PermissionRepository, endpoints port.EndpointRepository) *PermissionResolver {
	return &PermissionResolver{roles: roles, permissions: permissions, endpoints: endpoints}
}

// EffectivePermissions returns the union of permissions across every role the user holds.
func (r *PermissionResolver) EffectivePermissions(ctx context.Context, userID int64) (domain.PermissionSet, error) {
	roleIDs, err := r.roles.ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrServer("list user roles", err)
	}

	if len(roleIDs) == 0 {
		return domain.NewPermissionSet(), nil
	}

	permissions, err := r.permissions.ListByRoleIDs(ctx, roleIDs)
	if err != nil {
		return nil, domain.ErrServer("list role permissions", err)
	}

	return domain.NewPermissionSet(permissions...), nil
}

// RequiredPermissions looks up the endpoint registered verbatim for (path, method).
// An absent endpoint yields an unregistered result, which is distinct from an empty set.
func (r *PermissionResolver) RequiredPermissions(ctx context.Context, path, method string) (domain.RequiredPermissions, error) {
	endpoint, err := r.endpoints.GetByRoute(ctx, domain.NormalizePath(path), domain.NormalizeMethod(method))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Unregistered(), nil
		}
		return domain.RequiredPermissions{}, domain.ErrServer("get endpoint by route", err)
	}

	permissions, err := r.permissions.ListByEndpoint(ctx, endpoint.ID)
	if err != nil {
		return domain.RequiredPermissions{}, domain.ErrServer("list endpoint permissions", err)
	}

	return domain.RequiredPermissions{
		Registered:  true,
		Endpoint:    endpoint,
		Permissions: domain.NewPermissionSet(permissions...),
	}, nil
}
