package email

import "errors"

var (
	ErrFailedToSend    = errors.New("email: failed to send")
	ErrInvalidConfig   = errors.New("email: invalid config")
	ErrInvalidMessage  = errors.New("email: invalid message")
	ErrUnknownTemplate = errors.New("email: unknown template")
	ErrInvalidCatalog  = errors.New("email: invalid catalog")
)
