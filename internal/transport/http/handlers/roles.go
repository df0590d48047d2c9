package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// ListRoles godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Success 200 {array} RolePayload
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/roles [get]
func (h *PolicyHandler) ListRoles(c *gin.Context) {
	roles, err := h.policy.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	payload := make([]RolePayload, 0, len(roles))
	for _, role := range roles {
		payload = append(payload, newRolePayload(role))
	}
	c.JSON(http.StatusOK, payload)
}

// GetRole godoc
// @Summary Get a role with its permissions
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} RoleDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id} [get]
func (h *PolicyHandler) GetRole(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.policy.GetRole(c.Request.Context(), roleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RoleDetailResponse{
		Role:        newRolePayload(detail.Role),
		Permissions: newPermissionPayloads(detail.Permissions),
	})
}

// CreateRole godoc
// @Summary Create a new role
// @Description Display names need not be unique.
// @Tags Roles
// @Accept json
// @Produce json
// @Param request body RoleCreateRequest true "Role create request"
// @Success 201 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles [post]
func (h *PolicyHandler) CreateRole(c *gin.Context) {
	var req RoleCreateRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	role, err := h.policy.CreateRole(c.Request.Context(), actorID(c), usecase.CreateRoleInput{
		DisplayName: strings.TrimSpace(req.DisplayName),
		Description: trimmedPtr(req.Description),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRolePayload(*role))
}

// UpdateRole godoc
// @Summary Update a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param request body RoleUpdateRequest true "Role update request"
// @Success 200 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id} [patch]
func (h *PolicyHandler) UpdateRole(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RoleUpdateRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	role, err := h.policy.UpdateRole(c.Request.Context(), actorID(c), roleID, usecase.UpdateRoleInput{
		DisplayName: trimmedPtr(req.DisplayName),
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRolePayload(*role))
}

// DeleteRole godoc
// @Summary Delete a role
// @Tags Roles
// @Param id path int true "Role ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id} [delete]
func (h *PolicyHandler) DeleteRole(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteRole(c.Request.Context(), actorID(c), roleID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReplaceRolePermissions godoc
// @Summary Replace the permissions of a role
// @Description Atomically replaces the role's permission set. An empty list removes every permission.
// @Tags Roles
// @Accept json
// @Param id path int true "Role ID"
// @Param request body PermissionIDsRequest true "Permission ids"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id}/permissions [put]
func (h *PolicyHandler) ReplaceRolePermissions(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req PermissionIDsRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	if err := h.policy.UpdateRolePermissions(c.Request.Context(), actorID(c), roleID, req.PermissionIDs); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GrantRolePermission attaches a single permission to a role. 409 when already attached.
func (h *PolicyHandler) GrantRolePermission(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	permissionID, ok := idParam(c, "permission_id")
	if !ok {
		return
	}

	if err := h.policy.GrantPermissionToRole(c.Request.Context(), actorID(c), roleID, permissionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeRolePermission detaches a single permission from a role. 404 when not attached.
func (h *PolicyHandler) RevokeRolePermission(c *gin.Context) {
	roleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	permissionID, ok := idParam(c, "permission_id")
	if !ok {
		return
	}

	if err := h.policy.RevokePermissionFromRole(c.Request.Context(), actorID(c), roleID, permissionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
