package notifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/notifier"
)

func TestJobID(t *testing.T) {
	t.Parallel()

	avail := change.Classify(change.AttributeInventory, 0, 3)
	base := notifier.JobID("a@example.com", "listing-42", avail, 0, 3)

	assert.Equal(t, base, notifier.JobID("a@example.com", "listing-42", avail, 0, 3), "stable across calls")
	assert.Equal(t, base, notifier.JobID(" A@Example.com ", "listing-42", avail, 0, 3), "recipient is normalised")
	assert.EqualValues(t, 5, base.Version())

	differs := []struct {
		name string
		id   func() [16]byte
	}{
		{"recipient", func() [16]byte { return notifier.JobID("b@example.com", "listing-42", avail, 0, 3) }},
		{"listing", func() [16]byte { return notifier.JobID("a@example.com", "listing-43", avail, 0, 3) }},
		{"new value", func() [16]byte { return notifier.JobID("a@example.com", "listing-42", avail, 0, 4) }},
		{"old value", func() [16]byte { return notifier.JobID("a@example.com", "listing-42", avail, 1, 3) }},
		{"category", func() [16]byte {
			return notifier.JobID("a@example.com", "listing-42", change.Classify(change.AttributePrice, 0, 3), 0, 3)
		}},
	}
	for _, tt := range differs {
		assert.NotEqual(t, [16]byte(base), tt.id(), tt.name)
	}
}
