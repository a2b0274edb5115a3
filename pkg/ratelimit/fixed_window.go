package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// Defaults for the public submission endpoint.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour
)

// Config configures a FixedWindow limiter from the environment.
type Config struct {
	Limit           int           `env:"RATELIMIT_LIMIT" envDefault:"10"`
	Window          time.Duration `env:"RATELIMIT_WINDOW" envDefault:"1h"`
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	Backend         string        `env:"RATELIMIT_BACKEND" envDefault:"memory"` // memory or redis
}

// FixedWindow is a keyed fixed-window limiter.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// FixedWindowOption configures a FixedWindow.
type FixedWindowOption func(*FixedWindow)

// WithLogger sets the logger used to report store failures.
func WithLogger(l *slog.Logger) FixedWindowOption {
	return func(fw *FixedWindow) {
		if l != nil {
			fw.logger = l
		}
	}
}

// NewFixedWindow creates a limiter admitting limit requests per window per key.
func NewFixedWindow(store Store, limit int, window time.Duration, opts ...FixedWindowOption) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidInterval
	}

	fw := &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

// Allow consumes one slot for key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	rec, allowed, err := fw.store.Consume(ctx, key, fw.limit, fw.window)
	if err != nil {
		return nil, err
	}

	return fw.result(rec, allowed), nil
}

// Check is the boolean form of Allow. Store failures are logged and the
// request is allowed.
func (fw *FixedWindow) Check(ctx context.Context, key string) bool {
	res, err := fw.Allow(ctx, key)
	if err != nil {
		fw.logger.WarnContext(ctx, "rate limit check failed, allowing request",
			logger.Component("ratelimit"),
			slog.String("key", key),
			logger.Error(err))
		return true
	}
	return res.Allowed
}

// Status returns the current state of key without consuming a slot.
func (fw *FixedWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	rec, ok, err := fw.store.Get(ctx, key, fw.window)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Allowed: true, Limit: fw.limit, Remaining: fw.limit, ResetAt: time.Now().Add(fw.window)}, nil
	}

	return fw.result(rec, rec.Count < fw.limit), nil
}

// Reset clears the window of key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, key)
}

func (fw *FixedWindow) result(rec Record, allowed bool) *Result {
	return &Result{
		Allowed:   allowed,
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-rec.Count),
		ResetAt:   rec.WindowStart.Add(fw.window),
	}
}
