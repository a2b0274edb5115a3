package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/queue"
)

type MockEnqueuerRepository struct {
	mock.Mock
}

func (m *MockEnqueuerRepository) InsertJob(ctx context.Context, job *queue.Job) (bool, error) {
	args := m.Called(ctx, job)
	return args.Bool(0), args.Error(1)
}

func TestNewEnqueuer(t *testing.T) {
	t.Parallel()

	_, err := queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("stamps defaults", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
		repo := new(MockEnqueuerRepository)
		defer repo.AssertExpectations(t)

		repo.On("InsertJob", mock.Anything, mock.MatchedBy(func(j *queue.Job) bool {
			return j.State == queue.StateQueued &&
				j.Attempts == 0 &&
				j.MaxAttempts == 3 &&
				j.RunAt.Equal(now) &&
				j.CreatedAt.Equal(now)
		})).Return(true, nil).Once()

		enq, err := queue.NewEnqueuer(repo, queue.WithEnqueuerClock(func() time.Time { return now }))
		require.NoError(t, err)

		inserted, err := enq.Enqueue(context.Background(), newTestJob(t, "a@example.com"))
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("custom attempt budget", func(t *testing.T) {
		t.Parallel()

		repo := new(MockEnqueuerRepository)
		defer repo.AssertExpectations(t)

		repo.On("InsertJob", mock.Anything, mock.MatchedBy(func(j *queue.Job) bool {
			return j.MaxAttempts == 7
		})).Return(true, nil).Once()

		enq, err := queue.NewEnqueuer(repo, queue.WithMaxAttempts(7))
		require.NoError(t, err)

		_, err = enq.Enqueue(context.Background(), newTestJob(t, "a@example.com"))
		require.NoError(t, err)
	})

	t.Run("rejects invalid jobs without touching storage", func(t *testing.T) {
		t.Parallel()

		repo := new(MockEnqueuerRepository)
		defer repo.AssertExpectations(t)

		enq, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		_, err = enq.Enqueue(context.Background(), nil)
		assert.ErrorIs(t, err, queue.ErrJobNil)

		noRecipient := newTestJob(t, "")
		_, err = enq.Enqueue(context.Background(), noRecipient)
		assert.ErrorIs(t, err, queue.ErrInvalidJob)

		badKind := newTestJob(t, "a@example.com")
		badKind.Kind = "unknown"
		_, err = enq.Enqueue(context.Background(), badKind)
		assert.ErrorIs(t, err, queue.ErrInvalidJob)

		noPayload := newTestJob(t, "a@example.com")
		noPayload.Payload = nil
		_, err = enq.Enqueue(context.Background(), noPayload)
		assert.ErrorIs(t, err, queue.ErrInvalidJob)
	})

	t.Run("wraps storage errors", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("connection refused")
		repo := new(MockEnqueuerRepository)
		defer repo.AssertExpectations(t)
		repo.On("InsertJob", mock.Anything, mock.Anything).Return(false, storeErr).Once()

		enq, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		inserted, err := enq.Enqueue(context.Background(), newTestJob(t, "a@example.com"))
		assert.ErrorIs(t, err, storeErr)
		assert.False(t, inserted)
	})
}

func TestEnqueuer_Dedup(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	ctx := context.Background()

	job := newTestJob(t, "a@example.com")
	id := job.ID

	inserted, err := enq.Enqueue(ctx, job)
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := newTestJob(t, "a@example.com")
	dup.ID = id
	inserted, err = enq.Enqueue(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted, "live job with the same id must not be duplicated")

	claimed, err := storage.ClaimJob(ctx, id, time.Minute)
	require.NoError(t, err)
	require.NoError(t, storage.CompleteJob(ctx, claimed.ID, queue.OutcomeDelivered))

	again := newTestJob(t, "a@example.com")
	again.ID = id
	inserted, err = enq.Enqueue(ctx, again)
	require.NoError(t, err)
	assert.True(t, inserted, "completed job is replaced by a new enqueue")

	stored, err := storage.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateQueued, stored.State)
	assert.Equal(t, 0, stored.Attempts)
}
