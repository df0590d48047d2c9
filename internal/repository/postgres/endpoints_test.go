package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

func TestEndpointRepository_GetByRoute(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEndpointRepository(mock)

	mock.ExpectQuery(`SELECT id, path, method, description FROM trend_diary\.endpoints WHERE method = \$1 AND path = \$2 LIMIT 1`).
		WithArgs("GET", "/api/v1/users").
		WillReturnRows(pgxmock.NewRows([]string{"id", "path", "method", "description"}).
			AddRow(int64(5), "/api/v1/users", "GET", nil))

	endpoint, err := repo.GetByRoute(context.Background(), "/api/v1/users", "GET")
	if err != nil {
		t.Fatalf("GetByRoute returned error: %v", err)
	}
	if endpoint.ID != 5 || endpoint.Description != nil {
		t.Fatalf("unexpected endpoint %+v", endpoint)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEndpointRepository_GetByRouteUnregistered(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEndpointRepository(mock)

	mock.ExpectQuery(`FROM trend_diary\.endpoints`).
		WithArgs("GET", "/api/unknown").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByRoute(context.Background(), "/api/unknown", "GET"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEndpointRepository_CreateDuplicateRoute(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEndpointRepository(mock)

	mock.ExpectQuery(`INSERT INTO trend_diary\.endpoints \(path,method,description\) VALUES \(\$1,\$2,\$3\) RETURNING id`).
		WithArgs("/api/v1/users", "GET", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), domain.Endpoint{Path: "/api/v1/users", Method: "GET"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestEndpointRepository_DetachPermissions(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEndpointRepository(mock)

	mock.ExpectExec(`DELETE FROM trend_diary\.endpoint_permissions WHERE endpoint_id = \$1 AND permission_id IN \(\$2\)`).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	removed, err := repo.DetachPermissions(context.Background(), 5, []int64{1})
	if err != nil {
		t.Fatalf("DetachPermissions returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEndpointRepository_GetByIDForUpdateLocksRow(t *testing.T) {
	mock := newMockPool(t)
	repo := NewEndpointRepository(mock)

	mock.ExpectQuery(`SELECT id, path, method, description FROM trend_diary\.endpoints WHERE id = \$1 LIMIT 1 FOR UPDATE`).
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "path", "method", "description"}).
			AddRow(int64(12), "/api/v1/articles", "POST", nil))

	endpoint, err := repo.GetByIDForUpdate(context.Background(), 12)
	if err != nil {
		t.Fatalf("GetByIDForUpdate returned error: %v", err)
	}
	if endpoint.Path != "/api/v1/articles" || endpoint.Method != "POST" {
		t.Fatalf("unexpected endpoint %+v", endpoint)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
