package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

// permissionEdges manages an owner→permission join table such as role_permissions.
type permissionEdges struct {
	table       string
	ownerColumn string
}

var (
	rolePermissionEdges     = permissionEdges{table: "trend_diary.role_permissions", ownerColumn: "role_id"}
	endpointPermissionEdges = permissionEdges{table: "trend_diary.endpoint_permissions", ownerColumn: "endpoint_id"}
)

func (e permissionEdges) has(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, ownerID, permissionID int64) (bool, error) {
	stmt, args, err := builder.Select("COUNT(1)").
		From(e.table).
		Where(squirrel.Eq{e.ownerColumn: ownerID, "permission_id": permissionID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s exists sql: %w", e.table, err)
	}

	var count int64
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query %s exists: %w", e.table, err)
	}

	return count > 0, nil
}

func (e permissionEdges) attach(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, ownerID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	query := builder.Insert(e.table).
		Columns(e.ownerColumn, "permission_id")

	for _, permissionID := range permissionIDs {
		query = query.Values(ownerID, permissionID)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert %s sql: %w", e.table, err)
	}

	res, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrConflict
		}
		return 0, fmt.Errorf("insert %s: %w", e.table, err)
	}

	return int(res.RowsAffected()), nil
}

func (e permissionEdges) detach(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, ownerID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	stmt, args, err := builder.Delete(e.table).
		Where(squirrel.Eq{e.ownerColumn: ownerID}).
		Where(squirrel.Eq{"permission_id": permissionIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete %s sql: %w", e.table, err)
	}

	res, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", e.table, err)
	}

	return int(res.RowsAffected()), nil
}

func (e permissionEdges) detachAll(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, ownerID int64) (int, error) {
	stmt, args, err := builder.Delete(e.table).
		Where(squirrel.Eq{e.ownerColumn: ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete all %s sql: %w", e.table, err)
	}

	res, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", e.table, err)
	}

	return int(res.RowsAffected()), nil
}
