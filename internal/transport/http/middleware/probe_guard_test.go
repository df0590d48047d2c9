package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

type fakeFailureStore struct {
	count     int
	oldest    time.Time
	failErr   error
	recordErr error

	recorded []string
}

func (f *fakeFailureStore) Failures(_ context.Context, key string, _ time.Duration, _ time.Time) (int, time.Time, error) {
	return f.count, f.oldest, f.failErr
}

func (f *fakeFailureStore) RecordFailure(_ context.Context, key string, _ time.Duration, _ time.Time) error {
	f.recorded = append(f.recorded, key)
	return f.recordErr
}

type countingRecorder struct{ rejections int }

func (r *countingRecorder) RecordProbeRejection() { r.rejections++ }

func newGuardedRouter(t *testing.T, guard *ProbeGuard, outcome usecase.AuthOutcome) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := NewSessionMiddleware(&fakeAuthenticator{result: usecase.AuthResult{Outcome: outcome}}, "sid", nil)

	router := gin.New()
	router.Use(guard.Handler())
	router.GET("/private", sessions.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestProbeGuardRecordsFailedAuthentication(t *testing.T) {
	store := &fakeFailureStore{}
	guard := NewProbeGuard(store, ProbeGuardConfig{MaxFailures: 3, Window: time.Minute}, nil, zaptest.NewLogger(t))
	router := newGuardedRouter(t, guard, usecase.OutcomeInvalidFormat)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.RemoteAddr = "192.0.2.10:41000"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if len(store.recorded) != 1 || store.recorded[0] != "192.0.2.10" {
		t.Fatalf("expected failure recorded for client ip, got %v", store.recorded)
	}
}

func TestProbeGuardIgnoresStorageFailuresOfAuthenticator(t *testing.T) {
	store := &fakeFailureStore{}
	guard := NewProbeGuard(store, ProbeGuardConfig{MaxFailures: 3, Window: time.Minute}, nil, nil)
	router := newGuardedRouter(t, guard, usecase.OutcomeValidationFailed)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", nil))

	if len(store.recorded) != 0 {
		t.Fatalf("validation failures must not count, got %v", store.recorded)
	}
}

func TestProbeGuardRejectsOverLimit(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := &fakeFailureStore{count: 3, oldest: now.Add(-45 * time.Second)}
	recorder := &countingRecorder{}
	guard := NewProbeGuard(store, ProbeGuardConfig{MaxFailures: 3, Window: time.Minute}, recorder, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return now })
	router := newGuardedRouter(t, guard, usecase.OutcomeAuthenticated)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", nil))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "15" {
		t.Fatalf("expected Retry-After 15, got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests || problem.RetryAfter != 15 || problem.Instance != "/private" {
		t.Fatalf("unexpected problem details %+v", problem)
	}
	if recorder.rejections != 1 {
		t.Fatalf("expected rejection to be recorded")
	}
}

func TestProbeGuardFailsOpenOnStoreError(t *testing.T) {
	store := &fakeFailureStore{failErr: errors.New("redis down"), recordErr: errors.New("redis down")}
	guard := NewProbeGuard(store, ProbeGuardConfig{MaxFailures: 1, Window: time.Minute}, nil, zaptest.NewLogger(t))
	router := newGuardedRouter(t, guard, usecase.OutcomeUserNotFound)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected the request to reach the session check, got %d", rr.Code)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("expected a record attempt, got %v", store.recorded)
	}
}

func TestProbeGuardDisabledWhenUnconfigured(t *testing.T) {
	store := &fakeFailureStore{count: 100}
	guard := NewProbeGuard(store, ProbeGuardConfig{}, nil, nil)
	router := newGuardedRouter(t, guard, usecase.OutcomeInvalidFormat)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/private", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if len(store.recorded) != 0 {
		t.Fatalf("disabled guard must not record")
	}
}
