package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// PolicyRepositories bundles the repositories the mutation service writes through.
type PolicyRepositories struct {
	Roles       port.RoleRepository
	Endpoints   port.EndpointRepository
	Permissions port.PermissionRepository
	Users       port.UserRepository
	AdminGrants port.AdminGrantRepository
}

// CreateRoleInput captures the payload for creating a role.
type CreateRoleInput struct {
	DisplayName string
	Description *string
}

// UpdateRoleInput carries optional role changes; nil fields are left untouched.
type UpdateRoleInput struct {
	DisplayName *string
	Description *string
}

// CreateEndpointInput captures the payload for registering an endpoint.
type CreateEndpointInput struct {
	Path        string
	Method      string
	Description *string
}

// UpdateEndpointInput carries optional endpoint changes; nil fields are left untouched.
type UpdateEndpointInput struct {
	Path        *string
	Method      *string
	Description *string
}

// CreatePermissionInput captures the payload for creating a permission atom.
type CreatePermissionInput struct {
	Resource    string
	Action      string
	Description *string
}

// RoleDetail is a role with the permissions attached to it.
type RoleDetail struct {
	Role        domain.Role
	Permissions []domain.Permission
}

// EndpointDetail is an endpoint with its required permissions.
type EndpointDetail struct {
	Endpoint    domain.Endpoint
	Permissions []domain.Permission
}

var allowedMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"HEAD":    {},
	"OPTIONS": {},
}

// IsAllowedMethod reports whether method (after normalisation) may be registered.
func IsAllowedMethod(method string) bool {
	_, ok := allowedMethods[domain.NormalizeMethod(method)]
	return ok
}

// PolicyMutationService manages the role and endpoint permission graphs.
// actorID 0 means the change was made by the system (for example the policyctl CLI).
type PolicyMutationService struct {
	roles       port.RoleRepository
	endpoints   port.EndpointRepository
	permissions port.PermissionRepository
	users       port.UserRepository
	admins      port.AdminGrantRepository
	tx          port.Transactor
	events      port.PolicyEventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewPolicyMutationService constructs a PolicyMutationService. events may be nil.
func NewPolicyMutationService(repos PolicyRepositories, tx port.Transactor, events port.PolicyEventPublisher, logger *zap.Logger) *PolicyMutationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyMutationService{
		roles:       repos.Roles,
		endpoints:   repos.Endpoints,
		permissions: repos.Permissions,
		users:       repos.Users,
		admins:      repos.AdminGrants,
		tx:          tx,
		events:      events,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GrantRole assigns roleID to userID.
func (s *PolicyMutationService) GrantRole(ctx context.Context, actorID, userID, roleID int64) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.requireRole(ctx, s.roles, roleID); err != nil {
		return err
	}

	has, err := s.users.HasRole(ctx, userID, roleID)
	if err != nil {
		return domain.ErrServer("check user role", err)
	}
	if has {
		return domain.ErrAlreadyExists("user_role", "user %d already has role %d", userID, roleID)
	}

	assignment := domain.UserRole{UserID: userID, RoleID: roleID, GrantedAt: s.now(), GrantedBy: actorPtr(actorID)}
	if err := s.users.AssignRole(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.ErrAlreadyExists("user_role", "user %d already has role %d", userID, roleID)
		}
		return domain.ErrServer("assign role", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleGranted, ActorID: actorPtr(actorID), UserID: &userID, RoleID: &roleID})
	return nil
}

// RevokeRole removes roleID from userID.
func (s *PolicyMutationService) RevokeRole(ctx context.Context, actorID, userID, roleID int64) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.requireRole(ctx, s.roles, roleID); err != nil {
		return err
	}

	has, err := s.users.HasRole(ctx, userID, roleID)
	if err != nil {
		return domain.ErrServer("check user role", err)
	}
	if !has {
		return domain.ErrNotFound("user_role", "user %d does not have role %d", userID, roleID)
	}

	if err := s.users.RemoveRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("user_role", "user %d does not have role %d", userID, roleID)
		}
		return domain.ErrServer("remove role", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleRevoked, ActorID: actorPtr(actorID), UserID: &userID, RoleID: &roleID})
	return nil
}

// GrantPermissionToRole attaches a single permission to a role.
func (s *PolicyMutationService) GrantPermissionToRole(ctx context.Context, actorID, roleID, permissionID int64) error {
	if _, err := s.requireRole(ctx, s.roles, roleID); err != nil {
		return err
	}
	if err := s.requirePermission(ctx, permissionID); err != nil {
		return err
	}

	has, err := s.roles.HasPermission(ctx, roleID, permissionID)
	if err != nil {
		return domain.ErrServer("check role permission", err)
	}
	if has {
		return domain.ErrAlreadyExists("role_permission", "role %d already has permission %d", roleID, permissionID)
	}

	if _, err := s.roles.AttachPermissions(ctx, roleID, []int64{permissionID}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.ErrAlreadyExists("role_permission", "role %d already has permission %d", roleID, permissionID)
		}
		return domain.ErrServer("attach role permission", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRolePermissionGranted, ActorID: actorPtr(actorID), RoleID: &roleID, PermissionIDs: []int64{permissionID}})
	return nil
}

// RevokePermissionFromRole detaches a single permission from a role.
func (s *PolicyMutationService) RevokePermissionFromRole(ctx context.Context, actorID, roleID, permissionID int64) error {
	if _, err := s.requireRole(ctx, s.roles, roleID); err != nil {
		return err
	}
	if err := s.requirePermission(ctx, permissionID); err != nil {
		return err
	}

	has, err := s.roles.HasPermission(ctx, roleID, permissionID)
	if err != nil {
		return domain.ErrServer("check role permission", err)
	}
	if !has {
		return domain.ErrNotFound("role_permission", "role %d does not have permission %d", roleID, permissionID)
	}

	if _, err := s.roles.DetachPermissions(ctx, roleID, []int64{permissionID}); err != nil {
		return domain.ErrServer("detach role permission", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRolePermissionRevoked, ActorID: actorPtr(actorID), RoleID: &roleID, PermissionIDs: []int64{permissionID}})
	return nil
}

// GrantPermissionToEndpoint adds a single permission to an endpoint's required set.
func (s *PolicyMutationService) GrantPermissionToEndpoint(ctx context.Context, actorID, endpointID, permissionID int64) error {
	if _, err := s.requireEndpoint(ctx, s.endpoints, endpointID); err != nil {
		return err
	}
	if err := s.requirePermission(ctx, permissionID); err != nil {
		return err
	}

	has, err := s.endpoints.HasPermission(ctx, endpointID, permissionID)
	if err != nil {
		return domain.ErrServer("check endpoint permission", err)
	}
	if has {
		return domain.ErrAlreadyExists("endpoint_permission", "endpoint %d already requires permission %d", endpointID, permissionID)
	}

	if _, err := s.endpoints.AttachPermissions(ctx, endpointID, []int64{permissionID}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.ErrAlreadyExists("endpoint_permission", "endpoint %d already requires permission %d", endpointID, permissionID)
		}
		return domain.ErrServer("attach endpoint permission", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointPermissionGranted, ActorID: actorPtr(actorID), EndpointID: &endpointID, PermissionIDs: []int64{permissionID}})
	return nil
}

// RevokePermissionFromEndpoint removes a single permission from an endpoint's required set.
func (s *PolicyMutationService) RevokePermissionFromEndpoint(ctx context.Context, actorID, endpointID, permissionID int64) error {
	if _, err := s.requireEndpoint(ctx, s.endpoints, endpointID); err != nil {
		return err
	}
	if err := s.requirePermission(ctx, permissionID); err != nil {
		return err
	}

	has, err := s.endpoints.HasPermission(ctx, endpointID, permissionID)
	if err != nil {
		return domain.ErrServer("check endpoint permission", err)
	}
	if !has {
		return domain.ErrNotFound("endpoint_permission", "endpoint %d does not require permission %d", endpointID, permissionID)
	}

	if _, err := s.endpoints.DetachPermissions(ctx, endpointID, []int64{permissionID}); err != nil {
		return domain.ErrServer("detach endpoint permission", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointPermissionRevoked, ActorID: actorPtr(actorID), EndpointID: &endpointID, PermissionIDs: []int64{permissionID}})
	return nil
}

// UpdateRolePermissions atomically replaces the role's permission set.
// An empty list strips every permission from the role.
func (s *PolicyMutationService) UpdateRolePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error {
	ids := uniqueIDs(permissionIDs)

	err := s.tx.InTx(ctx, func(ctx context.Context, repos port.PolicyRepositories) error {
		if _, err := lockRole(ctx, repos.Roles, roleID); err != nil {
			return err
		}
		if err := requirePermissions(ctx, repos.Permissions, ids); err != nil {
			return err
		}
		if _, err := repos.Roles.DetachAllPermissions(ctx, roleID); err != nil {
			return domain.ErrServer("detach role permissions", err)
		}
		if _, err := repos.Roles.AttachPermissions(ctx, roleID, ids); err != nil {
			return domain.ErrServer("attach role permissions", err)
		}
		return nil
	})
	if err != nil {
		return asDomainError("update role permissions", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRolePermissionsReplaced, ActorID: actorPtr(actorID), RoleID: &roleID, PermissionIDs: ids})
	return nil
}

// UpdateEndpointPermissions atomically replaces the endpoint's required set.
// An empty list leaves the endpoint registered with no requirements.
func (s *PolicyMutationService) UpdateEndpointPermissions(ctx context.Context, actorID, endpointID int64, permissionIDs []int64) error {
	ids := uniqueIDs(permissionIDs)

	err := s.tx.InTx(ctx, func(ctx context.Context, repos port.PolicyRepositories) error {
		if _, err := lockEndpoint(ctx, repos.Endpoints, endpointID); err != nil {
			return err
		}
		if err := requirePermissions(ctx, repos.Permissions, ids); err != nil {
			return err
		}
		if _, err := repos.Endpoints.DetachAllPermissions(ctx, endpointID); err != nil {
			return domain.ErrServer("detach endpoint permissions", err)
		}
		if _, err := repos.Endpoints.AttachPermissions(ctx, endpointID, ids); err != nil {
			return domain.ErrServer("attach endpoint permissions", err)
		}
		return nil
	})
	if err != nil {
		return asDomainError("update endpoint permissions", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointPermissionsReplace, ActorID: actorPtr(actorID), EndpointID: &endpointID, PermissionIDs: ids})
	return nil
}

// ListRoles returns all roles.
func (s *PolicyMutationService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, domain.ErrServer("list roles", err)
	}
	return roles, nil
}

// GetRole returns a role together with its permissions.
func (s *PolicyMutationService) GetRole(ctx context.Context, roleID int64) (*RoleDetail, error) {
	role, err := s.requireRole(ctx, s.roles, roleID)
	if err != nil {
		return nil, err
	}

	permissions, err := s.permissions.ListByRoleIDs(ctx, []int64{roleID})
	if err != nil {
		return nil, domain.ErrServer("list role permissions", err)
	}

	return &RoleDetail{Role: *role, Permissions: permissions}, nil
}

// CreateRole provisions a role. Display names are not unique.
func (s *PolicyMutationService) CreateRole(ctx context.Context, actorID int64, input CreateRoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, domain.ErrValidation("display name is required")
	}

	role, err := s.roles.Create(ctx, domain.Role{
		DisplayName: name,
		Description: input.Description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, domain.ErrServer("create role", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleCreated, ActorID: actorPtr(actorID), RoleID: &role.ID})
	return role, nil
}

// UpdateRole changes a role's display name or description.
func (s *PolicyMutationService) UpdateRole(ctx context.Context, actorID, roleID int64, input UpdateRoleInput) (*domain.Role, error) {
	role, err := s.requireRole(ctx, s.roles, roleID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, domain.ErrValidation("display name must not be empty")
		}
		role.DisplayName = name
	}
	if input.Description != nil {
		role.Description = input.Description
	}

	if err := s.roles.Update(ctx, *role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("role", "role %d not found", roleID)
		}
		return nil, domain.ErrServer("update role", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleUpdated, ActorID: actorPtr(actorID), RoleID: &roleID})
	return role, nil
}

// DeleteRole removes a role and, through cascading keys, its edges.
func (s *PolicyMutationService) DeleteRole(ctx context.Context, actorID, roleID int64) error {
	if _, err := s.requireRole(ctx, s.roles, roleID); err != nil {
		return err
	}

	if err := s.roles.Delete(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("role", "role %d not found", roleID)
		}
		return domain.ErrServer("delete role", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeRoleDeleted, ActorID: actorPtr(actorID), RoleID: &roleID})
	return nil
}

// ListEndpoints returns all registered endpoints.
func (s *PolicyMutationService) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	endpoints, err := s.endpoints.List(ctx)
	if err != nil {
		return nil, domain.ErrServer("list endpoints", err)
	}
	return endpoints, nil
}

// GetEndpoint returns an endpoint together with its required permissions.
func (s *PolicyMutationService) GetEndpoint(ctx context.Context, endpointID int64) (*EndpointDetail, error) {
	endpoint, err := s.requireEndpoint(ctx, s.endpoints, endpointID)
	if err != nil {
		return nil, err
	}

	permissions, err := s.permissions.ListByEndpoint(ctx, endpointID)
	if err != nil {
		return nil, domain.ErrServer("list endpoint permissions", err)
	}

	return &EndpointDetail{Endpoint: *endpoint, Permissions: permissions}, nil
}

// CreateEndpoint registers (path, method). A duplicate route is rejected.
func (s *PolicyMutationService) CreateEndpoint(ctx context.Context, actorID int64, input CreateEndpointInput) (*domain.Endpoint, error) {
	path, method, err := validateRoute(input.Path, input.Method)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRouteFree(ctx, path, method, 0); err != nil {
		return nil, err
	}

	endpoint, err := s.endpoints.Create(ctx, domain.Endpoint{Path: path, Method: method, Description: input.Description})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrAlreadyExists("endpoint", "endpoint %s %s already exists", method, path)
		}
		return nil, domain.ErrServer("create endpoint", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointCreated, ActorID: actorPtr(actorID), EndpointID: &endpoint.ID})
	return endpoint, nil
}

// UpdateEndpoint changes an endpoint's route or description. Moving onto a route
// registered by another endpoint is rejected.
func (s *PolicyMutationService) UpdateEndpoint(ctx context.Context, actorID, endpointID int64, input UpdateEndpointInput) (*domain.Endpoint, error) {
	endpoint, err := s.requireEndpoint(ctx, s.endpoints, endpointID)
	if err != nil {
		return nil, err
	}

	path, method := endpoint.Path, endpoint.Method
	if input.Path != nil {
		path = *input.Path
	}
	if input.Method != nil {
		method = *input.Method
	}

	path, method, err = validateRoute(path, method)
	if err != nil {
		return nil, err
	}

	if path != endpoint.Path || method != endpoint.Method {
		if err := s.ensureRouteFree(ctx, path, method, endpointID); err != nil {
			return nil, err
		}
	}

	endpoint.Path = path
	endpoint.Method = method
	if input.Description != nil {
		endpoint.Description = input.Description
	}

	if err := s.endpoints.Update(ctx, *endpoint); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, domain.ErrAlreadyExists("endpoint", "endpoint %s %s already exists", method, path)
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrNotFound("endpoint", "endpoint %d not found", endpointID)
		default:
			return nil, domain.ErrServer("update endpoint", err)
		}
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointUpdated, ActorID: actorPtr(actorID), EndpointID: &endpointID})
	return endpoint, nil
}

// DeleteEndpoint unregisters an endpoint.
func (s *PolicyMutationService) DeleteEndpoint(ctx context.Context, actorID, endpointID int64) error {
	if _, err := s.requireEndpoint(ctx, s.endpoints, endpointID); err != nil {
		return err
	}

	if err := s.endpoints.Delete(ctx, endpointID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("endpoint", "endpoint %d not found", endpointID)
		}
		return domain.ErrServer("delete endpoint", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeEndpointDeleted, ActorID: actorPtr(actorID), EndpointID: &endpointID})
	return nil
}

// ListPermissions returns every permission atom.
func (s *PolicyMutationService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, domain.ErrServer("list permissions", err)
	}
	return permissions, nil
}

// FindPermission looks a permission up by its resource and action.
func (s *PolicyMutationService) FindPermission(ctx context.Context, resource, action string) (*domain.Permission, error) {
	permission, err := s.permissions.GetByResourceAction(ctx, strings.TrimSpace(resource), strings.TrimSpace(action))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("permission", "permission %s.%s not found", resource, action)
		}
		return nil, domain.ErrServer("get permission", err)
	}
	return permission, nil
}

// CreatePermission adds a permission atom. (resource, action) must be unique.
func (s *PolicyMutationService) CreatePermission(ctx context.Context, actorID int64, input CreatePermissionInput) (*domain.Permission, error) {
	resource := strings.TrimSpace(input.Resource)
	action := strings.TrimSpace(input.Action)
	if resource == "" || action == "" {
		return nil, domain.ErrValidation("resource and action are required")
	}

	_, err := s.permissions.GetByResourceAction(ctx, resource, action)
	switch {
	case err == nil:
		return nil, domain.ErrAlreadyExists("permission", "permission %s.%s already exists", resource, action)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, domain.ErrServer("get permission", err)
	}

	permission, err := s.permissions.Create(ctx, domain.Permission{Resource: resource, Action: action, Description: input.Description})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrAlreadyExists("permission", "permission %s.%s already exists", resource, action)
		}
		return nil, domain.ErrServer("create permission", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangePermissionCreated, ActorID: actorPtr(actorID), PermissionIDs: []int64{permission.ID}})
	return permission, nil
}

// GrantAdmin records a dedicated admin grant for userID.
func (s *PolicyMutationService) GrantAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return domain.ErrServer("check admin grant", err)
	}
	if isAdmin {
		return domain.ErrAlreadyExists("admin_grant", "user %d is already an admin", userID)
	}

	if err := s.admins.Grant(ctx, domain.AdminGrant{UserID: userID, GrantedAt: s.now(), GrantedBy: actorPtr(actorID)}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.ErrAlreadyExists("admin_grant", "user %d is already an admin", userID)
		}
		return domain.ErrServer("grant admin", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeAdminGranted, ActorID: actorPtr(actorID), UserID: &userID})
	return nil
}

// RevokeAdmin removes the admin grant for userID.
func (s *PolicyMutationService) RevokeAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return domain.ErrServer("check admin grant", err)
	}
	if !isAdmin {
		return domain.ErrNotFound("admin_grant", "user %d is not an admin", userID)
	}

	if err := s.admins.Revoke(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("admin_grant", "user %d is not an admin", userID)
		}
		return domain.ErrServer("revoke admin", err)
	}

	s.publish(ctx, domain.PolicyChangedEvent{Kind: domain.PolicyChangeAdminRevoked, ActorID: actorPtr(actorID), UserID: &userID})
	return nil
}

func (s *PolicyMutationService) requireUser(ctx context.Context, userID int64) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("user", "user %d not found", userID)
		}
		return domain.ErrServer("get user", err)
	}
	return nil
}

func (s *PolicyMutationService) requireRole(ctx context.Context, roles port.RoleRepository, roleID int64) (*domain.Role, error) {
	role, err := roles.GetByID(ctx, roleID)
	return roleOrNotFound(role, err, roleID)
}

// lockRole holds the role row until the transaction ends; concurrent replaces
// of the same role queue behind it and the last to commit wins.
func lockRole(ctx context.Context, roles port.RoleRepository, roleID int64) (*domain.Role, error) {
	role, err := roles.GetByIDForUpdate(ctx, roleID)
	return roleOrNotFound(role, err, roleID)
}

func roleOrNotFound(role *domain.Role, err error, roleID int64) (*domain.Role, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("role", "role %d not found", roleID)
		}
		return nil, domain.ErrServer("get role", err)
	}
	return role, nil
}

func (s *PolicyMutationService) requireEndpoint(ctx context.Context, endpoints port.EndpointRepository, endpointID int64) (*domain.Endpoint, error) {
	endpoint, err := endpoints.GetByID(ctx, endpointID)
	return endpointOrNotFound(endpoint, err, endpointID)
}

func lockEndpoint(ctx context.Context, endpoints port.EndpointRepository, endpointID int64) (*domain.Endpoint, error) {
	endpoint, err := endpoints.GetByIDForUpdate(ctx, endpointID)
	return endpointOrNotFound(endpoint, err, endpointID)
}

func endpointOrNotFound(endpoint *domain.Endpoint, err error, endpointID int64) (*domain.Endpoint, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("endpoint", "endpoint %d not found", endpointID)
		}
		return nil, domain.ErrServer("get endpoint", err)
	}
	return endpoint, nil
}

func (s *PolicyMutationService) requirePermission(ctx context.Context, permissionID int64) error {
	if _, err := s.permissions.GetByID(ctx, permissionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound("permission", "permission %d not found", permissionID)
		}
		return domain.ErrServer("get permission", err)
	}
	return nil
}

func (s *PolicyMutationService) ensureRouteFree(ctx context.Context, path, method string, selfID int64) error {
	existing, err := s.endpoints.GetByRoute(ctx, path, method)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return domain.ErrServer("get endpoint by route", err)
	case existing.ID != selfID:
		return domain.ErrAlreadyExists("endpoint", "endpoint %s %s already exists", method, path)
	default:
		return nil
	}
}

// requirePermissions fails with NotFound naming every id that does not exist.
func requirePermissions(ctx context.Context, permissions port.PermissionRepository, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	found, err := permissions.ListByIDs(ctx, ids)
	if err != nil {
		return domain.ErrServer("list permissions by ids", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	existing := domain.NewPermissionSet(found...)
	missing := make([]int64, 0, len(ids)-len(found))
	for _, id := range ids {
		if !existing.Contains(id) {
			missing = append(missing, id)
		}
	}

	return domain.ErrNotFound("permission", "permissions not found: %v", missing)
}

func validateRoute(path, method string) (string, string, error) {
	path = domain.NormalizePath(path)
	method = domain.NormalizeMethod(method)

	if !strings.HasPrefix(path, "/") {
		return "", "", domain.ErrValidation("path must start with /")
	}
	if _, ok := allowedMethods[method]; !ok {
		return "", "", domain.ErrValidation("unsupported method %q", method)
	}

	return path, method, nil
}

func (s *PolicyMutationService) publish(ctx context.Context, event domain.PolicyChangedEvent) {
	if s.events == nil {
		return
	}

	event.EventID = uuid.NewString()
	event.OccurredAt = s.now()

	if err := s.events.PublishPolicyChanged(ctx, event); err != nil {
		s.logger.Warn("publish policy event failed",
			zap.String("kind", string(event.Kind)),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

// asDomainError keeps typed domain errors and wraps anything else as a ServerError.
func asDomainError(op string, err error) error {
	var (
		notFound *domain.NotFoundError
		exists   *domain.AlreadyExistsError
		invalid  *domain.ValidationError
		server   *domain.ServerError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &exists), errors.As(err, &invalid), errors.As(err, &server):
		return err
	default:
		return domain.ErrServer(op, err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func actorPtr(actorID int64) *int64 {
	if actorID == 0 {
		return nil
	}
	return &actorID
}
