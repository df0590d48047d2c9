package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// UserRepository exposes user lookups and user→role edges.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	HasRole(ctx context.Context, userID, roleID int64) (bool, error)
	AssignRole(ctx context.Context, assignment domain.UserRole) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// AdminGrantRepository stores dedicated admin grant rows.
type AdminGrantRepository interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	Grant(ctx context.Context, grant domain.AdminGrant) error
	Revoke(ctx context.Context, userID int64) error
}
