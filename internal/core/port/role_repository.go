package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// RoleRepository handles role CRUD and role→permission edges.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) (*domain.Role, error)
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	// GetByIDForUpdate locks the role row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, id int64) error
	ListIDsByUser(ctx context.Context, userID int64) ([]int64, error)

	HasPermission(ctx context.Context, roleID, permissionID int64) (bool, error)
	AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	DetachAllPermissions(ctx context.Context, roleID int64) (int, error)
}
