package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// ListEndpoints godoc
// @Summary List registered endpoints
// @Tags Endpoints
// @Produce json
// @Success 200 {array} EndpointPayload
// @Router /api/v1/endpoints [get]
func (h *PolicyHandler) ListEndpoints(c *gin.Context) {
	endpoints, err := h.policy.ListEndpoints(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	payload := make([]EndpointPayload, 0, len(endpoints))
	for _, endpoint := range endpoints {
		payload = append(payload, newEndpointPayload(endpoint))
	}
	c.JSON(http.StatusOK, payload)
}

// GetEndpoint godoc
// @Summary Get an endpoint with its required permissions
// @Tags Endpoints
// @Produce json
// @Param id path int true "Endpoint ID"
// @Success 200 {object} EndpointDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/endpoints/{id} [get]
func (h *PolicyHandler) GetEndpoint(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.policy.GetEndpoint(c.Request.Context(), endpointID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, EndpointDetailResponse{
		Endpoint:    newEndpointPayload(detail.Endpoint),
		Permissions: newPermissionPayloads(detail.Permissions),
	})
}

// CreateEndpoint godoc
// @Summary Register an endpoint
// @Description Paths are matched verbatim against the gin route template, e.g. /api/v1/roles/:id.
// @Tags Endpoints
// @Accept json
// @Produce json
// @Param request body EndpointCreateRequest true "Endpoint create request"
// @Success 201 {object} EndpointPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/endpoints [post]
func (h *PolicyHandler) CreateEndpoint(c *gin.Context) {
	var req EndpointCreateRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	endpoint, err := h.policy.CreateEndpoint(c.Request.Context(), actorID(c), usecase.CreateEndpointInput{
		Path:        domain.NormalizePath(req.Path),
		Method:      domain.NormalizeMethod(req.Method),
		Description: trimmedPtr(req.Description),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newEndpointPayload(*endpoint))
}

// UpdateEndpoint godoc
// @Summary Update an endpoint
// @Tags Endpoints
// @Accept json
// @Produce json
// @Param id path int true "Endpoint ID"
// @Param request body EndpointUpdateRequest true "Endpoint update request"
// @Success 200 {object} EndpointPayload
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/endpoints/{id} [patch]
func (h *PolicyHandler) UpdateEndpoint(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req EndpointUpdateRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	endpoint, err := h.policy.UpdateEndpoint(c.Request.Context(), actorID(c), endpointID, usecase.UpdateEndpointInput{
		Path:        req.Path,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newEndpointPayload(*endpoint))
}

// DeleteEndpoint removes an endpoint and its permission edges.
func (h *PolicyHandler) DeleteEndpoint(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.policy.DeleteEndpoint(c.Request.Context(), actorID(c), endpointID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReplaceEndpointPermissions godoc
// @Summary Replace the permissions an endpoint requires
// @Description An empty list leaves the endpoint registered with no requirements.
// @Tags Endpoints
// @Accept json
// @Param id path int true "Endpoint ID"
// @Param request body PermissionIDsRequest true "Permission ids"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/endpoints/{id}/permissions [put]
func (h *PolicyHandler) ReplaceEndpointPermissions(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req PermissionIDsRequest
	if !bindJSON(c, h.validate, &req) {
		return
	}

	if err := h.policy.UpdateEndpointPermissions(c.Request.Context(), actorID(c), endpointID, req.PermissionIDs); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PolicyHandler) GrantEndpointPermission(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}
	permissionID, ok := idParam(c, "permission_id")
	if !ok {
		return
	}

	if err := h.policy.GrantPermissionToEndpoint(c.Request.Context(), actorID(c), endpointID, permissionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PolicyHandler) RevokeEndpointPermission(c *gin.Context) {
	endpointID, ok := idParam(c, "id")
	if !ok {
		return
	}
	permissionID, ok := idParam(c, "permission_id")
	if !ok {
		return
	}

	if err := h.policy.RevokePermissionFromEndpoint(c.Request.Context(), actorID(c), endpointID, permissionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
