package subscribers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindEnabledSubscribers(ctx context.Context, listingID string) ([]subscribers.Subscription, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscribers.Subscription), args.Error(1)
}

func (m *MockStore) ToggleNotification(ctx context.Context, subscriberID, listingID string, enabled bool) error {
	return m.Called(ctx, subscriberID, listingID, enabled).Error(0)
}

func (m *MockStore) ToggleAllNotifications(ctx context.Context, subscriberID string, enabled bool) (int64, error) {
	args := m.Called(ctx, subscriberID, enabled)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Subscribe(ctx context.Context, sub subscribers.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockStore) Unsubscribe(ctx context.Context, subscriberID, listingID string) error {
	return m.Called(ctx, subscriberID, listingID).Error(0)
}

func TestNewResolver_NilStore(t *testing.T) {
	t.Parallel()

	r, err := subscribers.NewResolver(nil)
	assert.ErrorIs(t, err, subscribers.ErrStoreRequired)
	assert.Nil(t, r)
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("only enabled subscribers", func(t *testing.T) {
		t.Parallel()

		store := subscribers.NewMemoryStore()
		base := time.Now()
		for i, id := range []string{"A", "B", "C"} {
			require.NoError(t, store.Subscribe(ctx, subscribers.Subscription{
				SubscriberID: id,
				ListingID:    "lst_1",
				Email:        id + "@example.com",
				CreatedAt:    base.Add(time.Duration(i) * time.Second),
			}))
		}
		require.NoError(t, store.ToggleNotification(ctx, "B", "lst_1", false))

		r, err := subscribers.NewResolver(store)
		require.NoError(t, err)

		subs, err := r.Resolve(ctx, "lst_1")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "A", subs[0].SubscriberID)
		assert.Equal(t, "C", subs[1].SubscriberID)
	})

	t.Run("empty listing is not an error", func(t *testing.T) {
		t.Parallel()

		r, err := subscribers.NewResolver(subscribers.NewMemoryStore())
		require.NoError(t, err)

		subs, err := r.Resolve(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, subs)
		assert.Empty(t, subs)
	})

	t.Run("filters rows leaked by the store", func(t *testing.T) {
		t.Parallel()

		store := new(MockStore)
		defer store.AssertExpectations(t)

		now := time.Now()
		store.On("FindEnabledSubscribers", ctx, "lst_1").Return([]subscribers.Subscription{
			{SubscriberID: "z", ListingID: "lst_1", NotificationsEnabled: true, CreatedAt: now},
			{SubscriberID: "off", ListingID: "lst_1", NotificationsEnabled: false, CreatedAt: now},
			{SubscriberID: "a", ListingID: "lst_1", NotificationsEnabled: true, CreatedAt: now},
			{SubscriberID: "other", ListingID: "lst_2", NotificationsEnabled: true, CreatedAt: now},
		}, nil)

		r, err := subscribers.NewResolver(store)
		require.NoError(t, err)

		subs, err := r.Resolve(ctx, "lst_1")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, "a", subs[0].SubscriberID)
		assert.Equal(t, "z", subs[1].SubscriberID)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		t.Parallel()

		store := new(MockStore)
		defer store.AssertExpectations(t)

		boom := errors.New("connection refused")
		store.On("FindEnabledSubscribers", ctx, "lst_1").Return(nil, boom)

		r, err := subscribers.NewResolver(store)
		require.NoError(t, err)

		subs, err := r.Resolve(ctx, "lst_1")
		assert.Nil(t, subs)
		assert.ErrorIs(t, err, subscribers.ErrStoreUnavailable)
		assert.ErrorIs(t, err, boom)
	})
}
