package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-process throttle: rate tokens are added every interval
// up to burst, and each Wait consumes one.
type TokenBucket struct {
	mu       sync.Mutex
	rate     int
	interval time.Duration
	burst    int
	tokens   float64
	last     time.Time
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithBurst sets the maximum number of stored tokens. It never drops below rate.
func WithBurst(burst int) TokenBucketOption {
	return func(tb *TokenBucket) {
		if burst > 0 {
			tb.burst = burst
		}
	}
}

// NewTokenBucket creates a bucket admitting rate operations per interval.
// The bucket starts full.
func NewTokenBucket(rate int, interval time.Duration, opts ...TokenBucketOption) (*TokenBucket, error) {
	if rate <= 0 {
		return nil, ErrInvalidLimit
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	tb := &TokenBucket{
		rate:     rate,
		interval: interval,
		burst:    rate,
	}
	for _, opt := range opts {
		opt(tb)
	}
	tb.burst = max(tb.burst, tb.rate)
	tb.tokens = float64(tb.burst)
	tb.last = time.Now()

	return tb, nil
}

// reserve takes a token now or returns how long until one is available.
func (tb *TokenBucket) reserve() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	perToken := tb.interval / time.Duration(tb.rate)
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens = min(float64(tb.burst), tb.tokens+float64(elapsed)/float64(perToken))
		tb.last = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	return time.Duration((1 - tb.tokens) * float64(perToken))
}

// Wait blocks until a token is consumed or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait := tb.reserve()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
