package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/logger"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

const (
	// DefaultSessionCookie is the cookie carrying the session id when none is configured.
	DefaultSessionCookie = "sid"

	loginRequiredMessage = "login required"

	authFailureKey = "auth_failure"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// SessionAuthenticator resolves a session cookie into an identity.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, cookie string, present bool) usecase.AuthResult
}

// SessionMiddleware attaches the session identity to requests.
type SessionMiddleware struct {
	auth       SessionAuthenticator
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware builds the session policies around auth. An empty cookieName falls back to DefaultSessionCookie.
func NewSessionMiddleware(auth SessionAuthenticator, cookieName string, log *zap.Logger) *SessionMiddleware {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionMiddleware{auth: auth, cookieName: cookieName, logger: log}
}

// CookieName returns the name of the session cookie.
func (m *SessionMiddleware) CookieName() string {
	return m.cookieName
}

// RequireSession rejects every request that does not carry a valid session with 401.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := m.authenticate(c)
		if !result.Authenticated() {
			if result.Outcome != usecase.OutcomeValidationFailed {
				markAuthFailure(c, result.Outcome)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, loginRequiredMessage))
			return
		}

		m.attach(c, result)
		c.Next()
	}
}

// OptionalSession attaches the identity when the session is valid and otherwise lets the request
// through unauthenticated.
func (m *SessionMiddleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := m.authenticate(c)
		switch {
		case result.Authenticated():
			m.attach(c, result)
		case result.Outcome == usecase.OutcomeInvalidFormat, result.Outcome == usecase.OutcomeUserNotFound:
			markAuthFailure(c, result.Outcome)
		}

		c.Next()
	}
}

func (m *SessionMiddleware) authenticate(c *gin.Context) usecase.AuthResult {
	cookie, err := c.Cookie(m.cookieName)
	return m.auth.Authenticate(c.Request.Context(), cookie, err == nil)
}

func (m *SessionMiddleware) attach(c *gin.Context, result usecase.AuthResult) {
	user := result.User

	c.Set(SessionUserKey, user)
	c.Set(SessionIDKey, result.SessionID)
	c.Set(UserIDKey, user.UserID)
	GetRequestContext(c).UserID = user.UserID

	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey{}, user.UserID)
	c.Request = c.Request.WithContext(ctx)
}

func markAuthFailure(c *gin.Context, outcome usecase.AuthOutcome) {
	c.Set(authFailureKey, string(outcome))
}

func authFailure(c *gin.Context) (string, bool) {
	outcome := c.GetString(authFailureKey)
	return outcome, outcome != ""
}
