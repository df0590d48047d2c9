package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
)

func TestStore_InTxCommitsBulkReplace(t *testing.T) {
	mock := newMockPool(t)
	store := NewStore(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectQuery(`SELECT id, display_name, description, preset, created_at FROM trend_diary\.roles WHERE id = \$1 LIMIT 1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "description", "preset", "created_at"}).
			AddRow(int64(3), "editor", nil, false, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	mock.ExpectExec(`DELETE FROM trend_diary\.role_permissions WHERE role_id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO trend_diary\.role_permissions`).
		WithArgs(int64(3), int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(ctx context.Context, repos port.PolicyRepositories) error {
		if _, err := repos.Roles.GetByIDForUpdate(ctx, 3); err != nil {
			return err
		}
		if _, err := repos.Roles.DetachAllPermissions(ctx, 3); err != nil {
			return err
		}
		_, err := repos.Roles.AttachPermissions(ctx, 3, []int64{5})
		return err
	})
	if err != nil {
		t.Fatalf("InTx returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_InTxRollsBackOnFailure(t *testing.T) {
	mock := newMockPool(t)
	store := NewStore(mock)

	insertErr := errors.New("insert failed")

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`DELETE FROM trend_diary\.endpoint_permissions WHERE endpoint_id = \$1`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO trend_diary\.endpoint_permissions`).
		WithArgs(int64(8), int64(2)).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(ctx context.Context, repos port.PolicyRepositories) error {
		if _, err := repos.Endpoints.DetachAllPermissions(ctx, 8); err != nil {
			return err
		}
		_, err := repos.Endpoints.AttachPermissions(ctx, 8, []int64{2})
		return err
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_InTxRollsBackOnPanic(t *testing.T) {
	mock := newMockPool(t)
	store := NewStore(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`DELETE FROM trend_diary\.role_permissions WHERE role_id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectRollback()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = store.InTx(context.Background(), func(ctx context.Context, repos port.PolicyRepositories) error {
			if _, err := repos.Roles.DetachAllPermissions(ctx, 4); err != nil {
				return err
			}
			panic("attach blew up")
		})
	}()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("transaction left open after panic: %v", err)
	}
}

func TestStore_InTxDoesNotCommitFailedBegin(t *testing.T) {
	mock := newMockPool(t)
	store := NewStore(mock)

	beginErr := errors.New("too many connections")
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}).WillReturnError(beginErr)

	called := false
	err := store.InTx(context.Background(), func(context.Context, port.PolicyRepositories) error {
		called = true
		return nil
	})
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
	if called {
		t.Fatal("fn must not run without a transaction")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
