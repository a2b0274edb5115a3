package subscribers

import (
	"context"
	"sync"
	"time"
)

type subscriptionKey struct {
	subscriberID string
	listingID    string
}

// MemoryStore implements Store in memory for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[subscriptionKey]Subscription
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[subscriptionKey]Subscription)}
}

func (s *MemoryStore) FindEnabledSubscribers(ctx context.Context, listingID string) ([]Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0)
	for k, sub := range s.subs {
		if k.listingID == listingID && sub.NotificationsEnabled {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *MemoryStore) ToggleNotification(ctx context.Context, subscriberID, listingID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := subscriptionKey{subscriberID: subscriberID, listingID: listingID}
	sub, ok := s.subs[k]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if sub.NotificationsEnabled != enabled {
		sub.NotificationsEnabled = enabled
		sub.UpdatedAt = time.Now()
		s.subs[k] = sub
	}
	return nil
}

func (s *MemoryStore) ToggleAllNotifications(ctx context.Context, subscriberID string, enabled bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var n int64
	for k, sub := range s.subs {
		if k.subscriberID != subscriberID || sub.NotificationsEnabled == enabled {
			continue
		}
		sub.NotificationsEnabled = enabled
		sub.UpdatedAt = now
		s.subs[k] = sub
		n++
	}
	return n, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, sub Subscription) error {
	if err := sub.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	k := subscriptionKey{subscriberID: sub.SubscriberID, listingID: sub.ListingID}
	if existing, ok := s.subs[k]; ok {
		existing.Email = sub.Email
		existing.UpdatedAt = now
		s.subs[k] = existing
		return nil
	}

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub.NotificationsEnabled = true
	s.subs[k] = sub
	return nil
}

func (s *MemoryStore) Unsubscribe(ctx context.Context, subscriberID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := subscriptionKey{subscriberID: subscriberID, listingID: listingID}
	if _, ok := s.subs[k]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(s.subs, k)
	return nil
}
