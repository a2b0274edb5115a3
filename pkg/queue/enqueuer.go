package queue

import (
	"context"
	"fmt"
	"time"
)

// Enqueuer handles job insertion.
type Enqueuer struct {
	repo        EnqueuerRepository
	maxAttempts int
	now         func() time.Time
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithMaxAttempts sets the attempt budget given to jobs that do not carry one.
func WithMaxAttempts(n int) EnqueuerOption {
	return func(e *Enqueuer) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithEnqueuerClock overrides the time source used to stamp new jobs.
func WithEnqueuerClock(now func() time.Time) EnqueuerOption {
	return func(e *Enqueuer) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	e := &Enqueuer{
		repo:        repo,
		maxAttempts: DefaultPolicy().MaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enqueue stores job as queued and returns without waiting for delivery.
// inserted is false when a live job with the same ID already exists.
func (e *Enqueuer) Enqueue(ctx context.Context, job *Job) (inserted bool, err error) {
	if job == nil {
		return false, ErrJobNil
	}
	if err := job.validate(); err != nil {
		return false, err
	}

	now := e.now()
	job.State = StateQueued
	job.Attempts = 0
	job.LockedUntil = nil
	job.LockedBy = nil
	job.LastError = ""
	job.Outcome = ""
	job.FinishedAt = nil
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = e.maxAttempts
	}
	if job.RunAt.IsZero() {
		job.RunAt = now
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	inserted, err = e.repo.InsertJob(ctx, job)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue job %s for %s: %w", job.ID, job.Recipient, err)
	}
	return inserted, nil
}
