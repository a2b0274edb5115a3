package notifier

import "errors"

var (
	ErrInvalidPayload   = errors.New("notifier: invalid job payload")
	ErrServiceClosed    = errors.New("notifier: service closed")
	ErrResolverRequired = errors.New("notifier: subscriber resolver is required")
	ErrEnqueuerRequired = errors.New("notifier: enqueuer is required")
	ErrSenderRequired   = errors.New("notifier: sender is required")
)
