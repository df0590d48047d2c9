package port

import (
	"context"
	"time"
)

// FailureWindowStore counts failures per key over a sliding window.
type FailureWindowStore interface {
	// Failures returns how many failures were recorded for key within window before now.
	Failures(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
	// RecordFailure adds a failure for key at now and prunes entries older than window.
	RecordFailure(ctx context.Context, key string, window time.Duration, now time.Time) error
}
