package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

var permissionColumns = []string{"p.id", "p.resource", "p.action", "p.description"}

// PermissionRepository implements permission persistence backed by PostgreSQL.
type PermissionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewPermissionRepository(exec pgExecutor) *PermissionRepository {
	return &PermissionRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *PermissionRepository) WithTx(tx pgx.Tx) *PermissionRepository {
	if tx == nil {
		return r
	}
	return &PermissionRepository{exec: tx, builder: r.builder}
}

// Create inserts a permission atom and returns it with its issued id.
func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) (*domain.Permission, error) {
	stmt, args, err := r.builder.Insert("trend_diary.permissions").
		Columns("resource", "action", "description").
		Values(permission.Resource, permission.Action, permission.Description).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert permission sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&permission.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("insert permission: %w", err)
	}

	return &permission, nil
}

// GetByID retrieves a permission by id.
func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id}, "by id")
}

// GetByResourceAction retrieves a permission by its unique (resource, action) pair.
func (r *PermissionRepository) GetByResourceAction(ctx context.Context, resource, action string) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"p.resource": resource, "p.action": action}, "by resource action")
}

func (r *PermissionRepository) getOne(ctx context.Context, where squirrel.Eq, label string) (*domain.Permission, error) {
	stmt, args, err := r.builder.Select(permissionColumns...).
		From("trend_diary.permissions p").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission %s sql: %w", label, err)
	}

	var (
		permission  domain.Permission
		description sql.NullString
	)

	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&permission.ID, &permission.Resource, &permission.Action, &description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission %s: %w", label, err)
	}

	if description.Valid {
		permission.Description = &description.String
	}

	return &permission, nil
}

// List returns every permission ordered by id.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	return r.list(ctx, r.builder.Select(permissionColumns...).
		From("trend_diary.permissions p").
		OrderBy("p.id ASC"), "permissions")
}

// ListByIDs returns the permissions among ids that exist.
func (r *PermissionRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error) {
	if len(ids) == 0 {
		return []domain.Permission{}, nil
	}

	return r.list(ctx, r.builder.Select(permissionColumns...).
		From("trend_diary.permissions p").
		Where(squirrel.Eq{"p.id": ids}).
		OrderBy("p.id ASC"), "permissions by ids")
}

// ListByRoleIDs returns the distinct permissions attached to any of the given roles.
func (r *PermissionRepository) ListByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Permission, error) {
	if len(roleIDs) == 0 {
		return []domain.Permission{}, nil
	}

	return r.list(ctx, r.builder.Select(permissionColumns...).
		Distinct().
		From("trend_diary.permissions p").
		Join("trend_diary.role_permissions rp ON rp.permission_id = p.id").
		Where(squirrel.Eq{"rp.role_id": roleIDs}).
		OrderBy("p.id ASC"), "permissions by roles")
}

// ListByEndpoint returns the permissions an endpoint requires.
func (r *PermissionRepository) ListByEndpoint(ctx context.Context, endpointID int64) ([]domain.Permission, error) {
	return r.list(ctx, r.builder.Select(permissionColumns...).
		From("trend_diary.permissions p").
		Join("trend_diary.endpoint_permissions ep ON ep.permission_id = p.id").
		Where(squirrel.Eq{"ep.endpoint_id": endpointID}).
		OrderBy("p.id ASC"), "permissions by endpoint")
}

func (r *PermissionRepository) list(ctx context.Context, query squirrel.SelectBuilder, label string) ([]domain.Permission, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list %s sql: %w", label, err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", label, err)
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var (
			permission  domain.Permission
			description sql.NullString
		)
		if err := rows.Scan(&permission.ID, &permission.Resource, &permission.Action, &description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", label, err)
		}
		if description.Valid {
			desc := description.String
			permission.Description = &desc
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", label, err)
	}

	return permissions, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
