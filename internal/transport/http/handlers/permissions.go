package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// ListPermissions godoc
// @Summary List permission atoms
// @Tags Permissions
// @Produce json
// @Success 200 {array} PermissionPayload
// @Router /api/v1/permissions [get]
func (h *PolicyHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.policy.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPermissionPayloads(permissions))
}

// CreatePermission godoc
// @Summary Create a permission atom
// @Tags Permissions
// @Accept json
// @Produce json
// @Param request body PermissionCreateRequest true "Permission create request"
// @Success 201 {object} PermissionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/permissions [post]
func (h *PolicyHandler) CreatePermission(c *gin.Context) {
	var req PermissionCreateRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	permission, err := h.policy.CreatePermission(c.Request.Context(), actorID(c), usecase.CreatePermissionInput{
		Resource:    strings.TrimSpace(req.Resource),
		Action:      strings.TrimSpace(req.Action),
		Description: trimmedPtr(req.Description),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPermissionPayload(*permission))
}
