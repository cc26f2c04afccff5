package session

import "github.com/pkg/errors"

// ErrUnknownTimerPolicy indicates an unrecognised timer policy name.
var ErrUnknownTimerPolicy = errors.New("unknown timer policy")
