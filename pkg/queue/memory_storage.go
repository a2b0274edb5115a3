package queue

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in process memory for tests and local development.
type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
	now  func() time.Time

	lockTicker *time.Ticker
	done       chan struct{}
	closeOnce  sync.Once
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithStorageClock overrides the time source.
func WithStorageClock(now func() time.Time) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStorage creates a new in-memory storage and starts the lock
// expiration manager.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	ms := &MemoryStorage{
		jobs: make(map[uuid.UUID]*Job),
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	ms.lockTicker = time.NewTicker(time.Second)
	go ms.lockExpirationManager()

	return ms
}

// Close stops the background goroutine.
func (ms *MemoryStorage) Close() error {
	ms.closeOnce.Do(func() {
		close(ms.done)
		ms.lockTicker.Stop()
	})
	return nil
}

func (ms *MemoryStorage) InsertJob(ctx context.Context, job *Job) (bool, error) {
	if job == nil {
		return false, ErrJobNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if existing, ok := ms.jobs[job.ID]; ok && !existing.State.Terminal() {
		return false, nil
	}

	ms.jobs[job.ID] = cloneJob(job)
	return true, nil
}

func (ms *MemoryStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	var next *Job
	for _, job := range ms.jobs {
		if job.State != StateQueued && job.State != StateFailedRetryable {
			continue
		}
		if job.RunAt.After(now) {
			continue
		}
		if next == nil || claimOrder(job, next) < 0 {
			next = job
		}
	}
	if next == nil {
		return nil, ErrNoJobToClaim
	}

	if err := claimTransition(next.ID, next.State); err != nil {
		return nil, err
	}

	lockedUntil := now.Add(lockDuration)
	next.State = StateActive
	next.Attempts++
	next.LockedUntil = &lockedUntil
	next.LockedBy = &workerID
	next.UpdatedAt = now

	return cloneJob(next), nil
}

func claimOrder(a, b *Job) int {
	if c := a.RunAt.Compare(b.RunAt); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

func (ms *MemoryStorage) CompleteJob(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	return ms.finish(id, StateCompleted, func(job *Job) {
		job.Outcome = outcome
	})
}

func (ms *MemoryStorage) RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err := checkTransition(id, job.State, StateFailedRetryable); err != nil {
		return err
	}

	job.State = StateFailedRetryable
	job.RunAt = runAt
	job.LastError = errMsg
	job.LockedUntil = nil
	job.LockedBy = nil
	job.UpdatedAt = ms.now()
	return nil
}

func (ms *MemoryStorage) DeadLetterJob(ctx context.Context, id uuid.UUID, errMsg string) error {
	return ms.finish(id, StateDeadLetter, func(job *Job) {
		job.LastError = errMsg
	})
}

func (ms *MemoryStorage) finish(id uuid.UUID, to State, update func(*Job)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err := checkTransition(id, job.State, to); err != nil {
		return err
	}

	now := ms.now()
	job.State = to
	job.LockedUntil = nil
	job.LockedBy = nil
	job.UpdatedAt = now
	job.FinishedAt = &now
	update(job)
	return nil
}

func (ms *MemoryStorage) ExtendLock(ctx context.Context, id uuid.UUID, duration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State != StateActive {
		return fmt.Errorf("%w: job %s is not active", ErrInvalidTransition, id)
	}

	lockedUntil := ms.now().Add(duration)
	job.LockedUntil = &lockedUntil
	return nil
}

func (ms *MemoryStorage) DeleteFinishedBefore(ctx context.Context, state State, cutoff time.Time) (int64, error) {
	if !state.Terminal() {
		return 0, fmt.Errorf("%w: cannot purge %s jobs", ErrInvalidTransition, state)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	var n int64
	for id, job := range ms.jobs {
		if job.State == state && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(ms.jobs, id)
			n++
		}
	}
	return n, nil
}

func (ms *MemoryStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	job, ok := ms.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return cloneJob(job), nil
}

func (ms *MemoryStorage) ListJobs(ctx context.Context, state State, limit int) ([]*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*Job, 0)
	for _, job := range ms.jobs {
		if job.State == state {
			out = append(out, cloneJob(job))
		}
	}
	slices.SortFunc(out, func(a, b *Job) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (ms *MemoryStorage) CountJobs(ctx context.Context) (Stats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stats := make(Stats)
	for _, job := range ms.jobs {
		stats[job.State]++
	}
	return stats, nil
}

// lockExpirationManager releases jobs whose worker lock has expired.
// The abandoned run counts as a failed attempt.
func (ms *MemoryStorage) lockExpirationManager() {
	for {
		select {
		case <-ms.done:
			return
		case <-ms.lockTicker.C:
			ms.releaseExpiredLocks()
		}
	}
}

func (ms *MemoryStorage) releaseExpiredLocks() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for _, job := range ms.jobs {
		if job.State != StateActive || job.LockedUntil == nil || job.LockedUntil.After(now) {
			continue
		}

		job.LockedUntil = nil
		job.LockedBy = nil
		job.LastError = "worker lock expired"
		job.UpdatedAt = now
		if job.Exhausted() {
			job.State = StateDeadLetter
			job.FinishedAt = &now
		} else {
			job.State = StateFailedRetryable
			job.RunAt = now
		}
	}
}

func cloneJob(job *Job) *Job {
	c := *job
	c.Payload = slices.Clone(job.Payload)
	if job.LockedUntil != nil {
		t := *job.LockedUntil
		c.LockedUntil = &t
	}
	if job.LockedBy != nil {
		id := *job.LockedBy
		c.LockedBy = &id
	}
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
