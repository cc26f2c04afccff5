package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// TimerPolicy selects which inbound datagrams re-arm a session's idle timer.
// The two reference behaviours differ here, so it is configuration rather
// than a constant of the protocol.
type TimerPolicy uint8

const (
	// ResetOnAccepted re-arms the timer only when a datagram is accepted:
	// a valid HELLO or a DATA that advances the expected sequence number.
	// Duplicates, violations and junk do not keep a session alive.
	ResetOnAccepted TimerPolicy = iota

	// ResetOnAny re-arms the timer on every datagram attributed to the
	// session, whatever the session makes of it.
	ResetOnAny
)

func (p TimerPolicy) String() string {
	switch p {
	case ResetOnAccepted:
		return "accepted"
	case ResetOnAny:
		return "any"
	default:
		return "invalid"
	}
}

// ParseTimerPolicy parses the flag value for a timer policy.
func ParseTimerPolicy(s string) (TimerPolicy, error) {
	switch s {
	case "accepted":
		return ResetOnAccepted, nil
	case "any":
		return ResetOnAny, nil
	default:
		return ResetOnAccepted, errors.Wrapf(ErrUnknownTimerPolicy, "parse %q failed", s)
	}
}

// sessionField renders a session id the way it appears in every log line.
func sessionField(id uint32) string {
	return fmt.Sprintf("%08x", id)
}
