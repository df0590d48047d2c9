package domain

import "time"

// Session binds an opaque UUID token to a user. Sessions have no TTL; they live
// until logout or explicit invalidation.
type Session struct {
	ID         string
	UserID     int64
	CreatedAt  time.Time
	LastSeenAt time.Time
}
