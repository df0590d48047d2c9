package usecase

import (
	"context"
	"errors"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// AuthOutcome is the terminal state of session authentication.
type AuthOutcome string

const (
	OutcomeAuthenticated    AuthOutcome = "authenticated"
	OutcomeNoSession        AuthOutcome = "no_session"
	OutcomeInvalidFormat    AuthOutcome = "invalid_format"
	OutcomeValidationFailed AuthOutcome = "validation_failed"
	OutcomeUserNotFound     AuthOutcome = "user_not_found"
)

// canonicalUUIDLength is the length of the 8-4-4-4-12 textual form.
const canonicalUUIDLength = 36

// AuthResult carries the outcome and, on success, the identity of the caller.
type AuthResult struct {
	Outcome   AuthOutcome
	SessionID string
	User      *domain.SessionUser
}

// Authenticated reports whether the pipeline reached DeriveIdentity.
func (r AuthResult) Authenticated() bool {
	return r.Outcome == OutcomeAuthenticated && r.User != nil
}

// AuthenticationRecorder receives authentication outcomes, typically for metrics.
type AuthenticationRecorder interface {
	RecordAuthentication(outcome AuthOutcome)
}

// SessionAuthenticator resolves a session cookie value into a SessionUser.
type SessionAuthenticator struct {
	sessions port.SessionRepository
	admin    AdminAccessResolver
	recorder AuthenticationRecorder
	logger   *zap.Logger
	touch    bool
	timeout  time.Duration
}

// SessionAuthenticatorOption customises a SessionAuthenticator.
type SessionAuthenticatorOption func(*SessionAuthenticator)

// WithSessionTouch enables last_seen_at updates after successful authentication.
func WithSessionTouch(enabled bool) SessionAuthenticatorOption {
	return func(a *SessionAuthenticator) {
		a.touch = enabled
	}
}

// WithAuthenticationRecorder attaches a recorder notified of every outcome.
func WithAuthenticationRecorder(recorder AuthenticationRecorder) SessionAuthenticatorOption {
	return func(a *SessionAuthenticator) {
		a.recorder = recorder
	}
}

// WithAuthenticatorLogger sets the logger.
func WithAuthenticatorLogger(logger *zap.Logger) SessionAuthenticatorOption {
	return func(a *SessionAuthenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewSessionAuthenticator constructs a SessionAuthenticator.
func NewSessionAuthenticator(sessions port.SessionRepository, admin AdminAccessResolver, opts ...SessionAuthenticatorOption) *SessionAuthenticator {
	a := &SessionAuthenticator{
		sessions: sessions,
		admin:    admin,
		logger:   zap.NewNop(),
		timeout:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate runs ExtractCookie, ValidateFormat, ResolveSession and DeriveIdentity,
// stopping at the first failure. It never returns an error; failures are outcomes.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, cookie string, present bool) AuthResult {
	result := a.authenticate(ctx, cookie, present)
	if a.recorder != nil {
		a.recorder.RecordAuthentication(result.Outcome)
	}
	return result
}

func (a *SessionAuthenticator) authenticate(ctx context.Context, cookie string, present bool) AuthResult {
	if !present || cookie == "" {
		return AuthResult{Outcome: OutcomeNoSession}
	}

	sessionID, ok := ParseSessionID(cookie)
	if !ok {
		return AuthResult{Outcome: OutcomeInvalidFormat}
	}

	user, err := a.sessions.ResolveUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{Outcome: OutcomeUserNotFound, SessionID: sessionID}
		}
		a.logger.Warn("session lookup failed", zap.Error(err))
		return AuthResult{Outcome: OutcomeValidationFailed, SessionID: sessionID}
	}

	sessionUser := &domain.SessionUser{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}

	if a.admin != nil {
		isAdmin, err := a.admin.HasAdminAccess(ctx, user.ID)
		if err != nil {
			a.logger.Warn("admin access check failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		sessionUser.HasAdminAccess = err == nil && isAdmin
	}

	if a.touch {
		a.touchSession(ctx, sessionID)
	}

	return AuthResult{Outcome: OutcomeAuthenticated, SessionID: sessionID, User: sessionUser}
}

func (a *SessionAuthenticator) touchSession(ctx context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.sessions.Touch(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		a.logger.Warn("session touch failed", zap.Error(err))
	}
}

// Logout deletes the session behind cookie. Unknown or malformed values are not an error.
func (a *SessionAuthenticator) Logout(ctx context.Context, cookie string) error {
	sessionID, ok := ParseSessionID(cookie)
	if !ok {
		return nil
	}

	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return domain.ErrServer("delete session", err)
	}

	return nil
}

// ParseSessionID accepts only the canonical hyphenated UUID form and returns it lower-case.
func ParseSessionID(value string) (string, bool) {
	if len(value) != canonicalUUIDLength {
		return "", false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return "", false
	}

	return id.String(), true
}
