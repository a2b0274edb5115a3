package subscribers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool (or pgx.Tx) used by PostgresStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore implements Store on the listing_subscriptions table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over db.
func NewPostgresStore(db DBTX) (*PostgresStore, error) {
	if db == nil {
		return nil, ErrStoreRequired
	}
	return &PostgresStore{db: db}, nil
}

const findEnabledSubscribersQuery = `
SELECT subscriber_id, listing_id, email, notifications_enabled, created_at, updated_at
FROM listing_subscriptions
WHERE listing_id = $1 AND notifications_enabled
ORDER BY created_at, subscriber_id`

func (s *PostgresStore) FindEnabledSubscribers(ctx context.Context, listingID string) ([]Subscription, error) {
	rows, err := s.db.Query(ctx, findEnabledSubscribersQuery, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers of listing %s: %w", listingID, err)
	}

	subs, err := pgx.CollectRows(rows, pgx.RowToStructByName[subscriptionRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscribers of listing %s: %w", listingID, err)
	}

	out := make([]Subscription, 0, len(subs))
	for _, r := range subs {
		out = append(out, Subscription(r))
	}
	return out, nil
}

func (s *PostgresStore) ToggleNotification(ctx context.Context, subscriberID, listingID string, enabled bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE listing_subscriptions
		SET notifications_enabled = $3, updated_at = now()
		WHERE subscriber_id = $1 AND listing_id = $2`,
		subscriberID, listingID, enabled)
	if err != nil {
		return fmt.Errorf("failed to toggle notification for %s/%s: %w", subscriberID, listingID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *PostgresStore) ToggleAllNotifications(ctx context.Context, subscriberID string, enabled bool) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE listing_subscriptions
		SET notifications_enabled = $2, updated_at = now()
		WHERE subscriber_id = $1 AND notifications_enabled <> $2`,
		subscriberID, enabled)
	if err != nil {
		return 0, fmt.Errorf("failed to toggle notifications for %s: %w", subscriberID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, sub Subscription) error {
	if err := sub.validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO listing_subscriptions (subscriber_id, listing_id, email, notifications_enabled)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (subscriber_id, listing_id)
		DO UPDATE SET email = EXCLUDED.email, updated_at = now()`,
		sub.SubscriberID, sub.ListingID, sub.Email)
	if err != nil {
		return fmt.Errorf("failed to subscribe %s to %s: %w", sub.SubscriberID, sub.ListingID, err)
	}
	return nil
}

func (s *PostgresStore) Unsubscribe(ctx context.Context, subscriberID, listingID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM listing_subscriptions WHERE subscriber_id = $1 AND listing_id = $2`,
		subscriberID, listingID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe %s from %s: %w", subscriberID, listingID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

type subscriptionRow struct {
	SubscriberID         string    `db:"subscriber_id"`
	ListingID            string    `db:"listing_id"`
	Email                string    `db:"email"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}
