package clientip

import "errors"

// ErrInvalidProxy is returned for a trusted proxy that is neither an address nor a CIDR.
var ErrInvalidProxy = errors.New("clientip: invalid trusted proxy")
