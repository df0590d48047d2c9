package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/middleware"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// PolicyService is the policy administration surface used by the admin API.
type PolicyService interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRole(ctx context.Context, roleID int64) (*usecase.RoleDetail, error)
	CreateRole(ctx context.Context, actorID int64, input usecase.CreateRoleInput) (*domain.Role, error)
	UpdateRole(ctx context.Context, actorID, roleID int64, input usecase.UpdateRoleInput) (*domain.Role, error)
	DeleteRole(ctx context.Context, actorID, roleID int64) error
	GrantPermissionToRole(ctx context.Context, actorID, roleID, permissionID int64) error
	RevokePermissionFromRole(ctx context.Context, actorID, roleID, permissionID int64) error
	UpdateRolePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) error

	ListEndpoints(ctx context.Context) ([]domain.Endpoint, error)
	GetEndpoint(ctx context.Context, endpointID int64) (*usecase.EndpointDetail, error)
	CreateEndpoint(ctx context.Context, actorID int64, input usecase.CreateEndpointInput) (*domain.Endpoint, error)
	UpdateEndpoint(ctx context.Context, actorID, endpointID int64, input usecase.UpdateEndpointInput) (*domain.Endpoint, error)
	DeleteEndpoint(ctx context.Context, actorID, endpointID int64) error
	GrantPermissionToEndpoint(ctx context.Context, actorID, endpointID, permissionID int64) error
	RevokePermissionFromEndpoint(ctx context.Context, actorID, endpointID, permissionID int64) error
	UpdateEndpointPermissions(ctx context.Context, actorID, endpointID int64, permissionIDs []int64) error

	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	CreatePermission(ctx context.Context, actorID int64, input usecase.CreatePermissionInput) (*domain.Permission, error)

	GrantRole(ctx context.Context, actorID, userID, roleID int64) error
	RevokeRole(ctx context.Context, actorID, userID, roleID int64) error
	GrantAdmin(ctx context.Context, actorID, userID int64) error
	RevokeAdmin(ctx context.Context, actorID, userID int64) error
}

var _ PolicyService = (*usecase.PolicyMutationService)(nil)

// PolicyHandler exposes the role, endpoint, permission and user assignment admin API.
type PolicyHandler struct {
	policy   PolicyService
	validate *validator.Validate
}

// NewPolicyHandler constructs a policy handler.
func NewPolicyHandler(policy PolicyService) *PolicyHandler {
	return &PolicyHandler{policy: policy, validate: NewValidator()}
}

// RegisterRoutes binds the admin routes to r. Callers are expected to guard r with the session
// and authorization middleware.
func (h *PolicyHandler) RegisterRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	roles := r.Group("/roles")
	roles.GET("", h.ListRoles)
	roles.POST("", h.CreateRole)
	roles.GET("/:id", h.GetRole)
	roles.PATCH("/:id", h.UpdateRole)
	roles.DELETE("/:id", h.DeleteRole)
	roles.PUT("/:id/permissions", h.ReplaceRolePermissions)
	roles.POST("/:id/permissions/:permission_id", h.GrantRolePermission)
	roles.DELETE("/:id/permissions/:permission_id", h.RevokeRolePermission)

	endpoints := r.Group("/endpoints")
	endpoints.GET("", h.ListEndpoints)
	endpoints.POST("", h.CreateEndpoint)
	endpoints.GET("/:id", h.GetEndpoint)
	endpoints.PATCH("/:id", h.UpdateEndpoint)
	endpoints.DELETE("/:id", h.DeleteEndpoint)
	endpoints.PUT("/:id/permissions", h.ReplaceEndpointPermissions)
	endpoints.POST("/:id/permissions/:permission_id", h.GrantEndpointPermission)
	endpoints.DELETE("/:id/permissions/:permission_id", h.RevokeEndpointPermission)

	permissions := r.Group("/permissions")
	permissions.GET("", h.ListPermissions)
	permissions.POST("", h.CreatePermission)

	users := r.Group("/users")
	users.POST("/:id/roles/:role_id", h.GrantUserRole)
	users.DELETE("/:id/roles/:role_id", h.RevokeUserRole)
	users.PUT("/:id/admin", h.GrantAdmin)
	users.DELETE("/:id/admin", h.RevokeAdmin)
}

// actorID returns the authenticated caller; routes behind RequireSession always have one.
func actorID(c *gin.Context) int64 {
	id, _ := middleware.GetAuthenticatedUserID(c)
	return id
}
