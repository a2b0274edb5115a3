package subscribers

import "errors"

var (
	ErrStoreUnavailable     = errors.New("subscription store unavailable")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrStoreRequired        = errors.New("subscription store is required")
)
