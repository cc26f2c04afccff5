package wire

import "github.com/pkg/errors"

// ErrMalformedHeader indicates a datagram too short to carry the fixed header.
var ErrMalformedHeader = errors.New("malformed header")
