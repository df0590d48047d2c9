package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	appLogger "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/logger"
)

const permissionDeniedMessage = "Permission denied"

// AccessChecker decides whether a user may call a (path, method) pair.
type AccessChecker interface {
	Check(ctx context.Context, userID int64, path, method string) (domain.Decision, error)
}

// Authorize enforces endpoint permissions for the session user. It must run after RequireSession.
// The endpoint is identified by the registered route template, e.g. /api/v1/roles/:id.
func Authorize(checker AccessChecker, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, loginRequiredMessage))
			return
		}

		path := EndpointPath(c)
		decision, err := checker.Check(c.Request.Context(), user.UserID, path, c.Request.Method)
		if err != nil {
			appLogger.Decorate(log, c.Request.Context()).Error("authorization check failed",
				zap.String("path", path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "internal error"))
			return
		}

		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, permissionDeniedMessage))
			return
		}

		c.Next()
	}
}

// EndpointPath returns the route template gin matched, or the raw path for unmatched requests.
func EndpointPath(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

// RequireAdmin rejects session users without administrative access. It must run after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, loginRequiredMessage))
			return
		}
		if !user.HasAdminAccess {
			c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, permissionDeniedMessage))
			return
		}
		c.Next()
	}
}
