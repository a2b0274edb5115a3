package queue

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pullInterval      time.Duration
	lockTimeout       time.Duration
	maxConcurrentJobs int
	throttle          *ratelimit.TokenBucket
	policy            Policy
	logger            *slog.Logger
}

// WithPullInterval sets how often the worker checks for due jobs
func WithPullInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed job stays locked to this worker
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithMaxConcurrentJobs sets the maximum number of jobs processed at once
func WithMaxConcurrentJobs(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrentJobs = n
		}
	}
}

// WithThroughput caps how many jobs are started per interval
func WithThroughput(rate int, interval time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if tb, err := ratelimit.NewTokenBucket(rate, interval); err == nil {
			o.throttle = tb
		}
	}
}

// WithPolicy sets the retry policy
func WithPolicy(p Policy) WorkerOption {
	return func(o *workerOptions) {
		if p.MaxAttempts > 0 {
			o.policy.MaxAttempts = p.MaxAttempts
		}
		if p.Backoff != nil {
			o.policy.Backoff = p.Backoff
		}
		if p.DeliveryTimeout > 0 {
			o.policy.DeliveryTimeout = p.DeliveryTimeout
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
