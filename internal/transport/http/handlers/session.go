package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/middleware"
)

// SessionTerminator deletes the session a cookie refers to.
type SessionTerminator interface {
	Logout(ctx context.Context, cookie string) error
}

// SessionHandler exposes the current session.
type SessionHandler struct {
	sessions     SessionTerminator
	cookieName   string
	secureCookie bool
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(sessions SessionTerminator, cookieName string, secureCookie bool) *SessionHandler {
	if cookieName == "" {
		cookieName = middleware.DefaultSessionCookie
	}
	return &SessionHandler{sessions: sessions, cookieName: cookieName, secureCookie: secureCookie}
}

// Current godoc
// @Summary Current session user
// @Tags Session
// @Produce json
// @Success 200 {object} SessionUserResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "login required"))
		return
	}

	c.JSON(http.StatusOK, newSessionUserResponse(*user))
}

// Logout godoc
// @Summary Log out
// @Description Deletes the session and clears the cookie. Succeeds when no session exists.
// @Tags Session
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/session [delete]
func (h *SessionHandler) Logout(c *gin.Context) {
	cookie, err := c.Cookie(h.cookieName)
	if err == nil && cookie != "" {
		if err := h.sessions.Logout(c.Request.Context(), cookie); err != nil {
			respondError(c, err)
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}
