package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GrantUserRole godoc
// @Summary Assign a role to a user
// @Tags Users
// @Param id path int true "User ID"
// @Param role_id path int true "Role ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/{id}/roles/{role_id} [post]
func (h *PolicyHandler) GrantUserRole(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	roleID, ok := idParam(c, "role_id")
	if !ok {
		return
	}

	if err := h.policy.GrantRole(c.Request.Context(), actorID(c), userID, roleID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeUserRole godoc
// @Summary Remove a role from a user
// @Tags Users
// @Param id path int true "User ID"
// @Param role_id path int true "Role ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/roles/{role_id} [delete]
func (h *PolicyHandler) RevokeUserRole(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	roleID, ok := idParam(c, "role_id")
	if !ok {
		return
	}

	if err := h.policy.RevokeRole(c.Request.Context(), actorID(c), userID, roleID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GrantAdmin godoc
// @Summary Record a dedicated admin grant for a user
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/{id}/admin [put]
func (h *PolicyHandler) GrantAdmin(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.policy.GrantAdmin(c.Request.Context(), actorID(c), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeAdmin godoc
// @Summary Remove a user's admin grant
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/admin [delete]
func (h *PolicyHandler) RevokeAdmin(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.policy.RevokeAdmin(c.Request.Context(), actorID(c), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
