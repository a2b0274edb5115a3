package notifier

import (
	"container/list"
	"sync"
	"time"

	"github.com/dmitrymomot/stockalert/pkg/change"
)

// DefaultFreshnessCapacity bounds the number of tracked recipient/listing pairs.
const DefaultFreshnessCapacity = 10000

// FreshnessTracker remembers the newest delivered change per recipient,
// listing and attribute. Least recently used entries are evicted at capacity.
type FreshnessTracker struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type freshnessEntry struct {
	key        string
	occurredAt time.Time
}

// NewFreshnessTracker creates a tracker holding up to capacity keys.
// A non-positive capacity uses DefaultFreshnessCapacity.
func NewFreshnessTracker(capacity int) *FreshnessTracker {
	if capacity <= 0 {
		capacity = DefaultFreshnessCapacity
	}
	return &FreshnessTracker{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// FreshnessKey builds the tracker key.
func FreshnessKey(recipient, listingID string, attr change.Attribute) string {
	return recipient + "|" + listingID + "|" + string(attr)
}

// IsStale reports whether a change newer than occurredAt was already delivered for key.
func (t *FreshnessTracker) IsStale(key string, occurredAt time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.items[key]
	if !ok {
		return false
	}
	t.order.MoveToFront(el)
	return el.Value.(*freshnessEntry).occurredAt.After(occurredAt)
}

// Record notes a delivery. Older timestamps never overwrite newer ones.
func (t *FreshnessTracker) Record(key string, occurredAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.items[key]; ok {
		entry := el.Value.(*freshnessEntry)
		if occurredAt.After(entry.occurredAt) {
			entry.occurredAt = occurredAt
		}
		t.order.MoveToFront(el)
		return
	}

	t.items[key] = t.order.PushFront(&freshnessEntry{key: key, occurredAt: occurredAt})
	if t.order.Len() > t.capacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.items, oldest.Value.(*freshnessEntry).key)
	}
}

// Len returns the number of tracked keys.
func (t *FreshnessTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}
