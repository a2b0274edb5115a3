package api

import "errors"

var (
	ErrSubmitterRequired   = errors.New("api: change submitter is required")
	ErrSubscriptionsRequired = errors.New("api: subscription store is required")
	ErrInspectorRequired   = errors.New("api: job inspector is required")
	ErrLimiterRequired     = errors.New("api: inquiry rate limiter is required")
	ErrInquirySinkRequired = errors.New("api: inquiry sink is required")
)
