package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// AdminGrantRepository stores dedicated admin grant rows.
type AdminGrantRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAdminGrantRepository constructs a PostgreSQL-backed admin grant repository.
func NewAdminGrantRepository(exec pgExecutor) *AdminGrantRepository {
	return &AdminGrantRepository{exec: exec, builder: newBuilder()}
}

// IsAdmin reports whether an admin grant row exists for the user.
func (r *AdminGrantRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	stmt, args, err := r.builder.Select("COUNT(1)").
		From("trend_diary.admin_grants").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build admin grant exists sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query admin grant exists: %w", err)
	}

	return count > 0, nil
}

// Grant inserts an admin grant row.
func (r *AdminGrantRepository) Grant(ctx context.Context, grant domain.AdminGrant) error {
	stmt, args, err := r.builder.Insert("trend_diary.admin_grants").
		Columns("user_id", "granted_at", "granted_by").
		Values(grant.UserID, grant.GrantedAt, grant.GrantedBy).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert admin grant sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert admin grant: %w", err)
	}

	return nil
}

// Revoke deletes the admin grant row for the user.
func (r *AdminGrantRepository) Revoke(ctx context.Context, userID int64) error {
	stmt, args, err := r.builder.Delete("trend_diary.admin_grants").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete admin grant sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete admin grant: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.AdminGrantRepository = (*AdminGrantRepository)(nil)
