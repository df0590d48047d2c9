package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// PermissionRepository manages permission atoms.
type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) (*domain.Permission, error)
	GetByID(ctx context.Context, id int64) (*domain.Permission, error)
	GetByResourceAction(ctx context.Context, resource, action string) (*domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	// ListByIDs returns the subset of ids that exist.
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error)
	// ListByRoleIDs returns permissions attached to any of the roles, one row per permission.
	ListByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Permission, error)
	ListByEndpoint(ctx context.Context, endpointID int64) ([]domain.Permission, error)
}
