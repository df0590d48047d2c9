package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// EndpointRepository handles endpoint CRUD and endpoint→permission edges.
type EndpointRepository interface {
	Create(ctx context.Context, endpoint domain.Endpoint) (*domain.Endpoint, error)
	GetByID(ctx context.Context, id int64) (*domain.Endpoint, error)
	// GetByIDForUpdate locks the endpoint row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Endpoint, error)
	GetByRoute(ctx context.Context, path, method string) (*domain.Endpoint, error)
	List(ctx context.Context) ([]domain.Endpoint, error)
	Update(ctx context.Context, endpoint domain.Endpoint) error
	Delete(ctx context.Context, id int64) error

	HasPermission(ctx context.Context, endpointID, permissionID int64) (bool, error)
	AttachPermissions(ctx context.Context, endpointID int64, permissionIDs []int64) (int, error)
	DetachPermissions(ctx context.Context, endpointID int64, permissionIDs []int64) (int, error)
	DetachAllPermissions(ctx context.Context, endpointID int64) (int, error)
}
