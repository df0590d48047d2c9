package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
)

// Store groups concrete PostgreSQL repository implementations and runs policy transactions.
type Store struct {
	db pgTxStarter

	Users       *UserRepository
	Roles       *RoleRepository
	Permissions *PermissionRepository
	Endpoints   *EndpointRepository
	Sessions    *SessionRepository
	AdminGrants *AdminGrantRepository
}

// NewStore wires all repositories backed by the provided pool.
func NewStore(db pgTxStarter) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Roles:       NewRoleRepository(db),
		Permissions: NewPermissionRepository(db),
		Endpoints:   NewEndpointRepository(db),
		Sessions:    NewSessionRepository(db),
		AdminGrants: NewAdminGrantRepository(db),
	}
}

// InTx runs fn inside one read-committed transaction. Repositories handed to fn
// are bound to the transaction; the transaction commits only when fn returns nil,
// and is rolled back on error or panic. Owners are serialized by row locks taken
// inside fn (GetByIDForUpdate), so the last replace to commit wins.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos port.PolicyRepositories) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	repos := port.PolicyRepositories{
		Roles:       s.Roles.WithTx(tx),
		Endpoints:   s.Endpoints.WithTx(tx),
		Permissions: s.Permissions.WithTx(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

var _ port.Transactor = (*Store)(nil)
