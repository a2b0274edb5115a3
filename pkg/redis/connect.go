package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// Option configures Connect.
type Option func(*connectOptions)

type connectOptions struct {
	logger *slog.Logger
}

// WithLogger reports failed connection attempts to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *connectOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Connect parses cfg.ConnectionURL and pings the server until it answers,
// cfg.RetryAttempts times at most and within cfg.ConnectTimeout overall.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	o := connectOptions{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(logger.Component("redis"))

	redisOpts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := max(1, cfg.RetryAttempts)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(redisOpts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		log.WarnContext(ctx, "redis connection attempt failed",
			logger.Attempt(i+1),
			slog.Int("max_attempts", attempts),
			logger.Error(lastErr))

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
