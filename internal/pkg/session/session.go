package session

import (
	"net"

	"sudp/internal/pkg/wire"

	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// State enumerates the session lifecycle.
type State uint8

// Session states. A session is created in StateAwaitingHello, promoted to
// StateActive by a valid HELLO, and ends in StateTerminated, which is
// terminal: a terminated session processes nothing further.
const (
	StateAwaitingHello State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingHello:
		return "AWAITING_HELLO"
	case StateActive:
		return "ACTIVE"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "INVALID"
	}
}

// Result describes the outcome of handling one inbound datagram or timer
// event. Reply, when non-nil, must be sent to the session's bound address.
// The counters feed metrics; ResetTimer tells the owning worker to re-arm
// the idle timer.
type Result struct {
	Reply      *wire.Datagram
	Accepted   bool
	Duplicate  bool
	Violation  bool
	Lost       uint32
	ResetTimer bool
}

// Session is one peer conversation. All fields except the immutable identity
// (id, addr) are mutated exclusively by the single worker that owns message
// delivery for this session id; Session itself holds no lock.
type Session struct {
	id       uint32
	addr     net.Addr
	state    State
	expected uint32
	policy   TimerPolicy

	log logrus.FieldLogger
}

// New creates a session bound to the given peer address, awaiting its HELLO.
func New(id uint32, addr net.Addr, policy TimerPolicy) *Session {
	return &Session{
		id:     id,
		addr:   addr,
		state:  StateAwaitingHello,
		policy: policy,
		log:    logger.WithField("session", sessionField(id)),
	}
}

// ID returns the immutable session id.
func (s *Session) ID() uint32 { return s.id }

// Addr returns the peer address the session is bound to.
func (s *Session) Addr() net.Addr { return s.addr }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Expected returns the next sequence number accepted without complaint.
func (s *Session) Expected() uint32 { return s.expected }

// Handle processes one inbound datagram already attributed to this session
// and mutates the state machine. Must only be called by the owning worker.
func (s *Session) Handle(dg *wire.Datagram) Result {
	if s.state == StateTerminated {
		return Result{}
	}
	var res Result
	if s.policy == ResetOnAny {
		res.ResetTimer = true
	}
	if !dg.Valid() {
		s.log.WithFields(logrus.Fields{
			"magic":   dg.Magic,
			"version": dg.Version,
		}).Warn("bad magic or version")
		s.violate(&res)
		return res
	}
	switch s.state {
	case StateAwaitingHello:
		s.handleHello(dg, &res)
	case StateActive:
		switch dg.Command {
		case wire.CommandData:
			s.handleData(dg, &res)
		case wire.CommandGoodbye:
			s.log.Info("peer said goodbye, closing session")
			s.close(&res)
		default:
			s.log.WithField("command", dg.Command.String()).Warn("unexpected command")
			s.violate(&res)
		}
	}
	return res
}

// Expire terminates the session after its idle window elapsed without valid
// traffic. A no-op when the session already terminated, so a timer firing
// concurrently with a terminating datagram cannot re-emit GOODBYE.
func (s *Session) Expire() Result {
	if s.state == StateTerminated {
		return Result{}
	}
	s.log.Warn("session idle timeout, sending goodbye")
	s.state = StateTerminated
	return Result{Reply: s.goodbye()}
}

// Shutdown terminates the session because the process is going away.
// A no-op when the session already terminated.
func (s *Session) Shutdown() Result {
	if s.state == StateTerminated {
		return Result{}
	}
	s.log.Info("shutting down, sending goodbye")
	s.state = StateTerminated
	return Result{Reply: s.goodbye()}
}

func (s *Session) handleHello(dg *wire.Datagram, res *Result) {
	if dg.Command != wire.CommandHello {
		s.log.WithField("command", dg.Command.String()).Warn("expected hello")
		s.violate(res)
		return
	}
	s.expected = dg.Seq + 1
	s.state = StateActive
	res.Accepted = true
	if s.policy == ResetOnAccepted {
		res.ResetTimer = true
	}
	// The HELLO reply echoes the initiator's sequence number.
	res.Reply = &wire.Datagram{
		Command:   wire.CommandHello,
		Seq:       dg.Seq,
		SessionID: s.id,
	}
	s.log.WithField("peer", s.addr.String()).Info("session established")
}

func (s *Session) handleData(dg *wire.Datagram, res *Result) {
	switch {
	case dg.Seq == s.expected:
		s.accept(dg, res)
	case dg.Seq > s.expected:
		for i := s.expected; i < dg.Seq; i++ {
			s.log.WithField("seq", i).Warn("lost packet")
		}
		res.Lost = dg.Seq - s.expected
		s.accept(dg, res)
	case dg.Seq+1 == s.expected:
		// Exactly one behind: a duplicate delivery. Discard without reply.
		s.log.WithField("seq", dg.Seq).Debug("duplicate packet, discarding")
		res.Duplicate = true
	default:
		s.log.WithFields(logrus.Fields{
			"seq":      dg.Seq,
			"expected": s.expected,
		}).Warn("sequence number out of order")
		s.violate(res)
	}
}

// accept takes the payload, acknowledges it with ALIVE echoing the sender's
// sequence number, and moves the expectation past it.
func (s *Session) accept(dg *wire.Datagram, res *Result) {
	s.log.WithFields(logrus.Fields{
		"seq":  dg.Seq,
		"data": string(dg.Payload),
	}).Info("received data")
	s.expected = dg.Seq + 1
	res.Accepted = true
	if s.policy == ResetOnAccepted {
		res.ResetTimer = true
	}
	res.Reply = &wire.Datagram{
		Command:   wire.CommandAlive,
		Seq:       dg.Seq,
		SessionID: s.id,
	}
}

// violate answers a protocol violation: GOODBYE, then terminate.
func (s *Session) violate(res *Result) {
	res.Violation = true
	s.close(res)
}

func (s *Session) close(res *Result) {
	s.state = StateTerminated
	res.Reply = s.goodbye()
	res.ResetTimer = false
}

// goodbye builds the terminating reply. It carries the session's current
// expected sequence number.
func (s *Session) goodbye() *wire.Datagram {
	return &wire.Datagram{
		Command:   wire.CommandGoodbye,
		Seq:       s.expected,
		SessionID: s.id,
	}
}
