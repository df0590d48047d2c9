package port

import "context"

// PolicyRepositories are the repositories available inside a policy unit of work.
type PolicyRepositories struct {
	Roles       RoleRepository
	Endpoints   EndpointRepository
	Permissions PermissionRepository
}

// Transactor runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos PolicyRepositories) error) error
}
