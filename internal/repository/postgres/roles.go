package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// RoleRepository implements role persistence operations.
type RoleRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewRoleRepository constructs a PostgreSQL-backed role repository.
func NewRoleRepository(exec pgExecutor) *RoleRepository {
	return &RoleRepository{
		exec:    exec,
		builder: newBuilder(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	if tx == nil {
		return r
	}
	return &RoleRepository{
		exec:    tx,
		builder: r.builder,
		now:     r.now,
	}
}

// Create inserts a new role. Display names are not required to be unique.
func (r *RoleRepository) Create(ctx context.Context, role domain.Role) (*domain.Role, error) {
	if role.CreatedAt.IsZero() {
		role.CreatedAt = r.now()
	}

	stmt, args, err := r.builder.Insert("trend_diary.roles").
		Columns("display_name", "description", "preset", "created_at").
		Values(role.DisplayName, role.Description, role.Preset, role.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert role sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&role.ID); err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}

	return &role, nil
}

// GetByID retrieves a role by its id.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getOne(ctx, id, "")
}

// GetByIDForUpdate retrieves the role and row-locks it until the surrounding
// transaction ends, so bulk replaces of one role's permissions run one at a time.
func (r *RoleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getOne(ctx, id, "FOR UPDATE")
}

func (r *RoleRepository) getOne(ctx context.Context, id int64, lock string) (*domain.Role, error) {
	query := r.builder.Select("id", "display_name", "description", "preset", "created_at").
		From("trend_diary.roles").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	if lock != "" {
		query = query.Suffix(lock)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role by id sql: %w", err)
	}

	var (
		role        domain.Role
		description sql.NullString
	)

	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&role.ID, &role.DisplayName, &description, &role.Preset, &role.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role by id: %w", err)
	}

	if description.Valid {
		role.Description = &description.String
	}

	return &role, nil
}

// List retrieves all roles ordered by id.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	stmt, args, err := r.builder.Select("id", "display_name", "description", "preset", "created_at").
		From("trend_diary.roles").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		var (
			role        domain.Role
			description sql.NullString
		)
		if err := rows.Scan(&role.ID, &role.DisplayName, &description, &role.Preset, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		if description.Valid {
			desc := description.String
			role.Description = &desc
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

// Update modifies an existing role.
func (r *RoleRepository) Update(ctx context.Context, role domain.Role) error {
	stmt, args, err := r.builder.Update("trend_diary.roles").
		Set("display_name", role.DisplayName).
		Set("description", role.Description).
		Where(squirrel.Eq{"id": role.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a role by id; user_roles and role_permissions rows go with it via FK.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("trend_diary.roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListIDsByUser returns the ids of roles assigned to the user.
func (r *RoleRepository) ListIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	stmt, args, err := r.builder.Select("role_id").
		From("trend_diary.user_roles").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("role_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build role ids by user sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query role ids by user: %w", err)
	}

	ids, err := scanIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("scan role ids by user: %w", err)
	}

	return ids, nil
}

// HasPermission reports whether the role→permission edge exists.
func (r *RoleRepository) HasPermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	return rolePermissionEdges.has(ctx, r.exec, r.builder, roleID, permissionID)
}

// AttachPermissions links the permissions to the role and returns the number of rows inserted.
func (r *RoleRepository) AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	return rolePermissionEdges.attach(ctx, r.exec, r.builder, roleID, permissionIDs)
}

// DetachPermissions removes the listed permissions from the role.
func (r *RoleRepository) DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	return rolePermissionEdges.detach(ctx, r.exec, r.builder, roleID, permissionIDs)
}

// DetachAllPermissions removes every permission from the role.
func (r *RoleRepository) DetachAllPermissions(ctx context.Context, roleID int64) (int, error) {
	return rolePermissionEdges.detachAll(ctx, r.exec, r.builder, roleID)
}

var _ port.RoleRepository = (*RoleRepository)(nil)
