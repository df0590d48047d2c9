package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
)

// FailureWindowConfig defines configuration for the sliding failure window.
type FailureWindowConfig struct {
	KeyPrefix string
}

// FailureWindowRepository records failed authentications in Redis sorted sets scored by time.
type FailureWindowRepository struct {
	client redis.Cmdable
	cfg    FailureWindowConfig
}

// NewFailureWindowRepository constructs a repository using the provided Redis client and config.
func NewFailureWindowRepository(client redis.Cmdable, cfg FailureWindowConfig) *FailureWindowRepository {
	return &FailureWindowRepository{client: client, cfg: cfg}
}

// RecordFailure stores now inside the window, drops entries that fell out of it and refreshes the TTL.
func (r *FailureWindowRepository) RecordFailure(ctx context.Context, identifier string, window time.Duration, now time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	key := r.key(identifier)
	nanos := now.UnixNano()
	threshold := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+threshold)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(nanos), Member: strconv.FormatInt(nanos, 10)})
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record failure: %w", err)
	}

	return nil
}

// Failures returns how many failures fall inside the window ending at now, plus the
// oldest of them. The zero time is returned when the window is empty.
func (r *FailureWindowRepository) Failures(ctx context.Context, identifier string, window time.Duration, now time.Time) (int, time.Time, error) {
	if window <= 0 {
		return 0, time.Time{}, errors.New("window must be positive")
	}

	key := r.key(identifier)
	min := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(now.UnixNano(), 10)

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.ZCount(ctx, key, min, max)
		oldest = pipe.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:   min,
			Max:   max,
			Count: 1,
		})
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, fmt.Errorf("redis count failures: %w", err)
	}

	n, err := count.Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis zcount: %w", err)
	}
	if n == 0 {
		return 0, time.Time{}, nil
	}

	entries, err := oldest.Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis zrangebyscore: %w", err)
	}

	var first time.Time
	if len(entries) > 0 {
		first = time.Unix(0, int64(entries[0].Score))
	}

	return int(n), first, nil
}

func (r *FailureWindowRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}

var _ port.FailureWindowStore = (*FailureWindowRepository)(nil)
