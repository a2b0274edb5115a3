package changefeed

import "errors"

var (
	ErrConnectionFailed  = errors.New("changefeed: failed to connect to nats")
	ErrPublishFailed     = errors.New("changefeed: failed to publish change event")
	ErrSubscribeFailed   = errors.New("changefeed: failed to subscribe")
	ErrMalformedMessage  = errors.New("changefeed: malformed change message")
	ErrSubmitterRequired = errors.New("changefeed: submitter is required")
	ErrConnRequired      = errors.New("changefeed: nats connection is required")
	ErrAlreadyRunning    = errors.New("changefeed: consumer already running")
)
