package change

import "errors"

var (
	// ErrInvalidEvent is returned by Event.Validate for events that must never be enqueued.
	ErrInvalidEvent = errors.New("invalid change event")

	// ErrUnknownCategory is returned when decoding a category envelope with an unknown kind.
	ErrUnknownCategory = errors.New("unknown change category")
)
