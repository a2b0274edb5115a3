package subscribers

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"
)

// Subscription is a standing interest of one subscriber in one listing.
// (SubscriberID, ListingID) is unique.
type Subscription struct {
	SubscriberID         string    `json:"subscriber_id"`
	ListingID            string    `json:"listing_id"`
	Email                string    `json:"email"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (s Subscription) validate() error {
	switch {
	case s.SubscriberID == "":
		return fmt.Errorf("%w: subscriber id is required", ErrInvalidSubscription)
	case s.ListingID == "":
		return fmt.Errorf("%w: listing id is required", ErrInvalidSubscription)
	case s.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidSubscription)
	}
	return nil
}

// Store is the subscription persistence contract.
type Store interface {
	// FindEnabledSubscribers returns subscriptions for the listing with notifications enabled.
	FindEnabledSubscribers(ctx context.Context, listingID string) ([]Subscription, error)

	// ToggleNotification sets the preference of a single subscription.
	ToggleNotification(ctx context.Context, subscriberID, listingID string, enabled bool) error

	// ToggleAllNotifications sets the preference of every subscription of a subscriber
	// and returns how many rows changed.
	ToggleAllNotifications(ctx context.Context, subscriberID string, enabled bool) (int64, error)

	// Subscribe creates or refreshes a subscription. Notifications start enabled.
	Subscribe(ctx context.Context, sub Subscription) error

	// Unsubscribe deletes the relationship.
	Unsubscribe(ctx context.Context, subscriberID, listingID string) error
}

// Resolver returns the notification audience of a listing.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) (*Resolver, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Resolver{store: store}, nil
}

// Resolve returns enabled subscriptions ordered by creation time, then subscriber id.
func (r *Resolver) Resolve(ctx context.Context, listingID string) ([]Subscription, error) {
	subs, err := r.store.FindEnabledSubscribers(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve listing %s: %w", ErrStoreUnavailable, listingID, err)
	}

	// The store contract already filters, but a leaked disabled row must never
	// turn into an email.
	out := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		if s.NotificationsEnabled && s.ListingID == listingID {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b Subscription) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SubscriberID, b.SubscriberID)
	})

	return out, nil
}
