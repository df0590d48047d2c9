package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionUserResponse describes the identity attached to the current session.
type SessionUserResponse struct {
	UserID         int64  `json:"user_id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	HasAdminAccess bool   `json:"has_admin_access"`
}

// PermissionPayload describes a permission atom.
type PermissionPayload struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Resource    string  `json:"resource"`
	Action      string  `json:"action"`
	Description *string `json:"description,omitempty"`
}

// RolePayload describes a role without its permissions.
type RolePayload struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Description *string   `json:"description,omitempty"`
	Preset      bool      `json:"preset"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleDetailResponse describes a role and the permissions it grants.
type RoleDetailResponse struct {
	Role        RolePayload         `json:"role"`
	Permissions []PermissionPayload `json:"permissions"`
}

// EndpointPayload describes a registered endpoint.
type EndpointPayload struct {
	ID          int64   `json:"id"`
	Path        string  `json:"path"`
	Method      string  `json:"method"`
	Description *string `json:"description,omitempty"`
}

// EndpointDetailResponse describes an endpoint and the permissions it requires.
type EndpointDetailResponse struct {
	Endpoint    EndpointPayload     `json:"endpoint"`
	Permissions []PermissionPayload `json:"permissions"`
}

// RoleCreateRequest is the body of POST /roles.
type RoleCreateRequest struct {
	DisplayName string  `json:"display_name" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// RoleUpdateRequest is the body of PATCH /roles/:id.
type RoleUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// EndpointCreateRequest is the body of POST /endpoints.
type EndpointCreateRequest struct {
	Path        string  `json:"path" validate:"required,startswith=/,max=1024"`
	Method      string  `json:"method" validate:"required,httpmethod"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// EndpointUpdateRequest is the body of PATCH /endpoints/:id.
type EndpointUpdateRequest struct {
	Path        *string `json:"path,omitempty" validate:"omitempty,startswith=/,max=1024"`
	Method      *string `json:"method,omitempty" validate:"omitempty,httpmethod"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// PermissionCreateRequest is the body of POST /permissions.
type PermissionCreateRequest struct {
	Resource    string  `json:"resource" validate:"required,max=255"`
	Action      string  `json:"action" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// PermissionIDsRequest is the body of the bulk replace endpoints. An empty list strips every edge.
type PermissionIDsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required,dive,gt=0"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newSessionUserResponse(user domain.SessionUser) SessionUserResponse {
	return SessionUserResponse{
		UserID:         user.UserID,
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		HasAdminAccess: user.HasAdminAccess,
	}
}

func newPermissionPayload(permission domain.Permission) PermissionPayload {
	return PermissionPayload{
		ID:          permission.ID,
		Name:        permission.Name(),
		Resource:    permission.Resource,
		Action:      permission.Action,
		Description: permission.Description,
	}
}

func newPermissionPayloads(permissions []domain.Permission) []PermissionPayload {
	payloads := make([]PermissionPayload, 0, len(permissions))
	for _, permission := range permissions {
		payloads = append(payloads, newPermissionPayload(permission))
	}
	return payloads
}

func newRolePayload(role domain.Role) RolePayload {
	return RolePayload{
		ID:          role.ID,
		DisplayName: role.DisplayName,
		Description: role.Description,
		Preset:      role.Preset,
		CreatedAt:   role.CreatedAt,
	}
}

func newEndpointPayload(endpoint domain.Endpoint) EndpointPayload {
	return EndpointPayload{
		ID:          endpoint.ID,
		Path:        endpoint.Path,
		Method:      endpoint.Method,
		Description: endpoint.Description,
	}
}
