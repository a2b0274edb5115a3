package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/stockalert/pkg/queue"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to queue.State
		allowed  bool
	}{
		{queue.StateQueued, queue.StateActive, true},
		{queue.StateActive, queue.StateCompleted, true},
		{queue.StateActive, queue.StateFailedRetryable, true},
		{queue.StateActive, queue.StateDeadLetter, true},
		{queue.StateFailedRetryable, queue.StateQueued, true},
		{queue.StateQueued, queue.StateCompleted, false},
		{queue.StateFailedRetryable, queue.StateDeadLetter, false},
		{queue.StateCompleted, queue.StateQueued, false},
		{queue.StateDeadLetter, queue.StateActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, queue.CanTransition(tt.from, tt.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	t.Parallel()

	assert.True(t, queue.StateCompleted.Terminal())
	assert.True(t, queue.StateDeadLetter.Terminal())
	assert.False(t, queue.StateQueued.Terminal())
	assert.False(t, queue.StateActive.Terminal())
	assert.False(t, queue.StateFailedRetryable.Terminal())
}

func TestKind_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, queue.KindInventoryChange.Valid())
	assert.True(t, queue.KindPriceChange.Valid())
	assert.False(t, queue.Kind("weather").Valid())
}

func TestStats_Total(t *testing.T) {
	t.Parallel()

	stats := queue.Stats{queue.StateQueued: 2, queue.StateDeadLetter: 1}
	assert.Equal(t, int64(3), stats.Total())
}
