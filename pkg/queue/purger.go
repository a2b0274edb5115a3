package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/logger"
)

// Purger deletes completed and dead-letter jobs once their retention has passed.
type Purger struct {
	repo     PurgerRepository
	interval time.Duration
	policy   Policy
	now      func() time.Time
	logger   *slog.Logger
}

// PurgerOption configures a Purger.
type PurgerOption func(*Purger)

// WithPurgeInterval sets how often Run purges.
func WithPurgeInterval(d time.Duration) PurgerOption {
	return func(p *Purger) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRetention sets the retention periods from policy.
func WithRetention(policy Policy) PurgerOption {
	return func(p *Purger) {
		if policy.CompletedRetention > 0 {
			p.policy.CompletedRetention = policy.CompletedRetention
		}
		if policy.DeadLetterRetention > 0 {
			p.policy.DeadLetterRetention = policy.DeadLetterRetention
		}
	}
}

// WithPurgerClock overrides the time source.
func WithPurgerClock(now func() time.Time) PurgerOption {
	return func(p *Purger) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPurgerLogger sets the logger.
func WithPurgerLogger(l *slog.Logger) PurgerOption {
	return func(p *Purger) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPurger creates a new Purger.
func NewPurger(repo PurgerRepository, opts ...PurgerOption) (*Purger, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	p := &Purger{
		repo:     repo,
		interval: 10 * time.Minute,
		policy:   DefaultPolicy(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("queue.purger"))
	return p, nil
}

// Purge deletes expired terminal jobs once and returns how many were removed.
func (p *Purger) Purge(ctx context.Context) (int64, error) {
	now := p.now()

	completed, errCompleted := p.repo.DeleteFinishedBefore(ctx, StateCompleted, now.Add(-p.policy.CompletedRetention))
	if errCompleted != nil {
		errCompleted = fmt.Errorf("failed to purge completed jobs: %w", errCompleted)
	}
	dead, errDead := p.repo.DeleteFinishedBefore(ctx, StateDeadLetter, now.Add(-p.policy.DeadLetterRetention))
	if errDead != nil {
		errDead = fmt.Errorf("failed to purge dead-letter jobs: %w", errDead)
	}

	if completed+dead > 0 {
		p.logger.InfoContext(ctx, "purged expired jobs",
			slog.Int64("completed", completed),
			slog.Int64("dead_letter", dead))
	}

	return completed + dead, errors.Join(errCompleted, errDead)
}

// Run purges on every interval until ctx is done. Suitable for errgroup.
func (p *Purger) Run(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := p.Purge(ctx); err != nil && ctx.Err() == nil {
					p.logger.ErrorContext(ctx, "purge failed", logger.Error(err))
				}
			}
		}
	}
}
