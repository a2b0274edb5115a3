package ratelimit

import (
	"context"
	"time"
)

// Record is the state of one key's current window.
type Record struct {
	Key         string
	WindowStart time.Time
	Count       int
}

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(0, time.Until(r.ResetAt))
}

// Store holds per-key windows.
type Store interface {
	// Consume atomically starts a new window (count 1) when the key has none or
	// its window elapsed, otherwise increments the count if it is below limit.
	// It reports whether the request was admitted and the resulting record.
	Consume(ctx context.Context, key string, limit int, window time.Duration) (Record, bool, error)

	// Get returns the current record. ok is false when the key has no live window.
	Get(ctx context.Context, key string, window time.Duration) (rec Record, ok bool, err error)

	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}
