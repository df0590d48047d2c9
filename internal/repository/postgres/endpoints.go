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

// EndpointRepository persists protected endpoints and their required permissions.
type EndpointRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEndpointRepository constructs a PostgreSQL-backed endpoint repository.
func NewEndpointRepository(exec pgExecutor) *EndpointRepository {
	return &EndpointRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *EndpointRepository) WithTx(tx pgx.Tx) *EndpointRepository {
	if tx == nil {
		return r
	}
	return &EndpointRepository{exec: tx, builder: r.builder}
}

// Create inserts an endpoint. A duplicate (path, method) surfaces as repository.ErrConflict.
func (r *EndpointRepository) Create(ctx context.Context, endpoint domain.Endpoint) (*domain.Endpoint, error) {
	stmt, args, err := r.builder.Insert("trend_diary.endpoints").
		Columns("path", "method", "description").
		Values(endpoint.Path, endpoint.Method, endpoint.Description).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert endpoint sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&endpoint.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("insert endpoint: %w", err)
	}

	return &endpoint, nil
}

// GetByID retrieves an endpoint by id.
func (r *EndpointRepository) GetByID(ctx context.Context, id int64) (*domain.Endpoint, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id", "")
}

// GetByIDForUpdate retrieves the endpoint and row-locks it until the surrounding transaction ends.
func (r *EndpointRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Endpoint, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id", "FOR UPDATE")
}

// GetByRoute retrieves the endpoint registered verbatim for path and method.
func (r *EndpointRepository) GetByRoute(ctx context.Context, path, method string) (*domain.Endpoint, error) {
	return r.getOne(ctx, squirrel.Eq{"path": path, "method": method}, "by route", "")
}

func (r *EndpointRepository) getOne(ctx context.Context, where squirrel.Eq, label, lock string) (*domain.Endpoint, error) {
	query := r.builder.Select("id", "path", "method", "description").
		From("trend_diary.endpoints").
		Where(where).
		Limit(1)
	if lock != "" {
		query = query.Suffix(lock)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select endpoint %s sql: %w", label, err)
	}

	var (
		endpoint    domain.Endpoint
		description sql.NullString
	)

	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&endpoint.ID, &endpoint.Path, &endpoint.Method, &description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan endpoint %s: %w", label, err)
	}

	if description.Valid {
		endpoint.Description = &description.String
	}

	return &endpoint, nil
}

// List returns all endpoints ordered by path then method.
func (r *EndpointRepository) List(ctx context.Context) ([]domain.Endpoint, error) {
	stmt, args, err := r.builder.Select("id", "path", "method", "description").
		From("trend_diary.endpoints").
		OrderBy("path ASC", "method ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list endpoints sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query endpoints: %w", err)
	}
	defer rows.Close()

	endpoints := make([]domain.Endpoint, 0)
	for rows.Next() {
		var (
			endpoint    domain.Endpoint
			description sql.NullString
		)
		if err := rows.Scan(&endpoint.ID, &endpoint.Path, &endpoint.Method, &description); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		if description.Valid {
			desc := description.String
			endpoint.Description = &desc
		}
		endpoints = append(endpoints, endpoint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}

	return endpoints, nil
}

// Update modifies an endpoint's route or description.
func (r *EndpointRepository) Update(ctx context.Context, endpoint domain.Endpoint) error {
	stmt, args, err := r.builder.Update("trend_diary.endpoints").
		Set("path", endpoint.Path).
		Set("method", endpoint.Method).
		Set("description", endpoint.Description).
		Where(squirrel.Eq{"id": endpoint.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update endpoint sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update endpoint: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes an endpoint; its endpoint_permissions rows go with it via FK.
func (r *EndpointRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("trend_diary.endpoints").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete endpoint sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// HasPermission reports whether the endpoint→permission edge exists.
func (r *EndpointRepository) HasPermission(ctx context.Context, endpointID, permissionID int64) (bool, error) {
	return endpointPermissionEdges.has(ctx, r.exec, r.builder, endpointID, permissionID)
}

// AttachPermissions links the permissions to the endpoint and returns the number of rows inserted.
func (r *EndpointRepository) AttachPermissions(ctx context.Context, endpointID int64, permissionIDs []int64) (int, error) {
	return endpointPermissionEdges.attach(ctx, r.exec, r.builder, endpointID, permissionIDs)
}

// DetachPermissions removes the listed permissions from the endpoint.
func (r *EndpointRepository) DetachPermissions(ctx context.Context, endpointID int64, permissionIDs []int64) (int, error) {
	return endpointPermissionEdges.detach(ctx, r.exec, r.builder, endpointID, permissionIDs)
}

// DetachAllPermissions removes every permission from the endpoint.
func (r *EndpointRepository) DetachAllPermissions(ctx context.Context, endpointID int64) (int, error) {
	return endpointPermissionEdges.detachAll(ctx, r.exec, r.builder, endpointID)
}

var _ port.EndpointRepository = (*EndpointRepository)(nil)
