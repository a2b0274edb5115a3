package queue_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/queue"
)

func newTestJob(t *testing.T, recipient string) *queue.Job {
	t.Helper()

	return &queue.Job{
		ID:         uuid.New(),
		Kind:       queue.KindInventoryChange,
		Recipient:  recipient,
		ListingID:  "listing-1",
		Payload:    json.RawMessage(`{"listing":{"id":"listing-1"}}`),
		OccurredAt: time.Now(),
	}
}

func fastPolicy() queue.Policy {
	return queue.Policy{
		MaxAttempts: 3,
		Backoff: queue.ExponentialBackoff{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2,
		},
		DeliveryTimeout: time.Second,
	}
}
