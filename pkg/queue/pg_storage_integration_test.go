//go:build integration

package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/pg/pgtest"
	"github.com/dmitrymomot/stockalert/pkg/queue"
)

func newPostgresStorage(t *testing.T) *queue.PostgresStorage {
	t.Helper()

	storage, err := queue.NewPostgresStorage(pgtest.Open(t, "notification_jobs"))
	require.NoError(t, err)
	return storage
}

func enqueuePostgres(t *testing.T, storage *queue.PostgresStorage, job *queue.Job) bool {
	t.Helper()

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	inserted, err := enq.Enqueue(context.Background(), job)
	require.NoError(t, err)
	return inserted
}

func TestPostgresStorage_DedupOnInsert(t *testing.T) {
	storage := newPostgresStorage(t)
	ctx := context.Background()

	job := newTestJob(t, "a@example.com")
	require.True(t, enqueuePostgres(t, storage, job))

	dup := *job
	assert.False(t, enqueuePostgres(t, storage, &dup), "queued job with the same id is not inserted twice")

	claimed, err := storage.ClaimJob(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)
	require.Equal(t, job.ID, claimed.ID)

	dup = *job
	assert.False(t, enqueuePostgres(t, storage, &dup), "active job with the same id is not replaced")

	require.NoError(t, storage.CompleteJob(ctx, job.ID, queue.OutcomeDelivered))

	dup = *job
	assert.True(t, enqueuePostgres(t, storage, &dup), "a terminal job is replaced by a repeated change")

	stored, err := storage.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateQueued, stored.State)
	assert.Zero(t, stored.Attempts)
	assert.Empty(t, stored.Outcome)
	assert.Nil(t, stored.FinishedAt)

	stats, err := storage.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total())
}

func TestPostgresStorage_ConcurrentClaimsAreExclusive(t *testing.T) {
	storage := newPostgresStorage(t)
	ctx := context.Background()

	const total = 30
	for range total {
		require.True(t, enqueuePostgres(t, storage, newTestJob(t, "a@example.com")))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			workerID := uuid.New()
			for {
				job, err := storage.ClaimJob(ctx, workerID, time.Minute)
				if errors.Is(err, queue.ErrNoJobToClaim) {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, claimed, total)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "job %s claimed more than once", id)
	}

	stats, err := storage.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(total), stats[queue.StateActive])
}

func TestPostgresStorage_Lifecycle(t *testing.T) {
	storage := newPostgresStorage(t)
	ctx := context.Background()
	workerID := uuid.New()

	job := newTestJob(t, "a@example.com")
	require.True(t, enqueuePostgres(t, storage, job))

	claimed, err := storage.ClaimJob(ctx, workerID, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, queue.StateActive, claimed.State)
	assert.Equal(t, 1, claimed.Attempts)
	require.NotNil(t, claimed.LockedBy)
	assert.Equal(t, workerID, *claimed.LockedBy)

	require.NoError(t, storage.ExtendLock(ctx, job.ID, time.Hour))
	stored, err := storage.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.After(time.Now().Add(30*time.Minute)))

	require.NoError(t, storage.RetryJob(ctx, job.ID, time.Now().Add(time.Hour), "mailbox unavailable"))
	_, err = storage.ClaimJob(ctx, workerID, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim, "retry is not due yet")
	assert.ErrorIs(t, storage.ExtendLock(ctx, job.ID, time.Minute), queue.ErrInvalidTransition)
	assert.ErrorIs(t, storage.CompleteJob(ctx, job.ID, queue.OutcomeDelivered), queue.ErrInvalidTransition)
	assert.ErrorIs(t, storage.CompleteJob(ctx, uuid.New(), queue.OutcomeDelivered), queue.ErrJobNotFound)

	due := newTestJob(t, "b@example.com")
	require.True(t, enqueuePostgres(t, storage, due))
	claimed, err = storage.ClaimJob(ctx, workerID, time.Minute)
	require.NoError(t, err)
	require.Equal(t, due.ID, claimed.ID)
	require.NoError(t, storage.DeadLetterJob(ctx, due.ID, "mailbox unavailable"))

	dead, err := storage.ListJobs(ctx, queue.StateDeadLetter, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "mailbox unavailable", dead[0].LastError)
	require.NotNil(t, dead[0].FinishedAt)

	n, err := storage.DeleteFinishedBefore(ctx, queue.StateDeadLetter, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "recent dead letters are retained")
	n, err = storage.DeleteFinishedBefore(ctx, queue.StateDeadLetter, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = storage.DeleteFinishedBefore(ctx, queue.StateQueued, time.Now())
	assert.ErrorIs(t, err, queue.ErrInvalidTransition)
}

func TestPostgresStorage_ExpiredLockCountsAsAttempt(t *testing.T) {
	storage := newPostgresStorage(t)
	ctx := context.Background()

	job := newTestJob(t, "a@example.com")
	job.MaxAttempts = 2
	require.True(t, enqueuePostgres(t, storage, job))

	_, err := storage.ClaimJob(ctx, uuid.New(), time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	reclaimed, err := storage.ClaimJob(ctx, uuid.New(), time.Millisecond)
	require.NoError(t, err, "expired lock returns the job to the queue")
	assert.Equal(t, job.ID, reclaimed.ID)
	assert.Equal(t, 2, reclaimed.Attempts)
	assert.Equal(t, "worker lock expired", reclaimed.LastError)

	time.Sleep(20 * time.Millisecond)
	_, err = storage.ClaimJob(ctx, uuid.New(), time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

	stored, err := storage.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateDeadLetter, stored.State, "exhausted job is dead-lettered on reclaim")
}
