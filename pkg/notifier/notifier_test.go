package notifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/stockalert/pkg/change"
	"github.com/dmitrymomot/stockalert/pkg/email"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) (bool, error) {
	args := m.Called(ctx, job)
	return args.Bool(0), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type stubResolver struct {
	subs []subscribers.Subscription
	err  error
}

func (r stubResolver) Resolve(context.Context, string) ([]subscribers.Subscription, error) {
	return r.subs, r.err
}

var errResolver = errors.New("subscription store down")

var baseTime = time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC)

func testListing() change.Listing {
	return change.Listing{
		ID:             "listing-42",
		Title:          "Registered Angus bull straws",
		SellerName:     "Rocking R Ranch",
		URL:            "https://market.example.com/listings/listing-42",
		UnitPrice:      35,
		UnitsAvailable: 3,
		Details:        map[string]string{"breed": "Angus", "epd_ced": "+12"},
	}
}

func inventoryEvent(oldValue, newValue float64, at time.Time) change.Event {
	return change.NewEvent(testListing(), change.AttributeInventory, oldValue, newValue, at)
}

func subscribe(t *testing.T, store *subscribers.MemoryStore, id, addr string, enabled bool) {
	t.Helper()

	ctx := context.Background()
	if err := store.Subscribe(ctx, subscribers.Subscription{SubscriberID: id, ListingID: "listing-42", Email: addr}); err != nil {
		t.Fatal(err)
	}
	if !enabled {
		if err := store.ToggleNotification(ctx, id, "listing-42", false); err != nil {
			t.Fatal(err)
		}
	}
}
