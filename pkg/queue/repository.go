package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository stores new jobs.
type EnqueuerRepository interface {
	// InsertJob stores job unless a non-terminal job with the same ID exists.
	// A terminal job with the same ID is replaced. Reports whether the job was stored.
	InsertJob(ctx context.Context, job *Job) (bool, error)
}

// WorkerRepository drives jobs through their lifecycle.
type WorkerRepository interface {
	// ClaimJob atomically picks the oldest due queued or failed_retryable job,
	// marks it active, increments its attempts and locks it for lockDuration.
	// Returns ErrNoJobToClaim when nothing is due.
	ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error)

	// CompleteJob moves an active job to completed with the given outcome.
	CompleteJob(ctx context.Context, id uuid.UUID, outcome Outcome) error

	// RetryJob moves an active job to failed_retryable, due again at runAt.
	RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error

	// DeadLetterJob moves an active job to dead_letter.
	DeadLetterJob(ctx context.Context, id uuid.UUID, errMsg string) error

	// ExtendLock pushes the lock of an active job forward while its handler runs.
	ExtendLock(ctx context.Context, id uuid.UUID, duration time.Duration) error
}

// PurgerRepository removes expired terminal jobs.
type PurgerRepository interface {
	// DeleteFinishedBefore deletes jobs in the terminal state that finished before cutoff.
	DeleteFinishedBefore(ctx context.Context, state State, cutoff time.Time) (int64, error)
}

// InspectorRepository reads jobs back for operators.
type InspectorRepository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, state State, limit int) ([]*Job, error)
	CountJobs(ctx context.Context) (Stats, error)
}

// Storage is implemented by every complete job store.
type Storage interface {
	EnqueuerRepository
	WorkerRepository
	PurgerRepository
	InspectorRepository
}
