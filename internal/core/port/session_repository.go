package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// SessionRepository deals with session storage.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	// ResolveUser joins the session to its owning user in a single lookup.
	ResolveUser(ctx context.Context, sessionID string) (*domain.User, error)
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}
