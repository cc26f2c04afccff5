package server

import (
	"context"
	"net"
	"sync"
	"time"

	"sudp/internal/pkg/clock"
	"sudp/internal/pkg/log"
	"sudp/internal/pkg/metrics"
	"sudp/internal/pkg/session"
	"sudp/internal/pkg/transport"
	"sudp/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	// readInterval bounds each blocking Receive so the read loop can notice
	// context cancellation.
	readInterval = 250 * time.Millisecond

	// maxDatagram is the largest datagram the server will read.
	maxDatagram = 2048
)

// DefaultSessionTimeout is the idle window after which a session is reaped.
const DefaultSessionTimeout = 20 * time.Second

// Server implements the passive, many-session role of the protocol.
type Server struct {
	port           uint16
	tr             transport.Transport
	clock          *clock.Clock
	table          *session.Table
	sessionTimeout time.Duration
	policy         session.TimerPolicy
	metrics        *metrics.Engine

	wg sync.WaitGroup
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithPort sets the UDP port to listen on.
func WithPort(p uint16) Cfg {
	return func(s *Server) error {
		s.port = p
		return nil
	}
}

// WithTransport injects a transport, replacing the UDP socket the server
// would otherwise open. Used by tests.
func WithTransport(tr transport.Transport) Cfg {
	return func(s *Server) error {
		s.tr = tr
		return nil
	}
}

// WithSessionTimeout sets the per-session idle timeout.
func WithSessionTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		if d <= 0 {
			return errors.Errorf("session timeout %s out of range", d)
		}
		s.sessionTimeout = d
		return nil
	}
}

// WithTimerPolicy sets the idle timer reset policy.
func WithTimerPolicy(p session.TimerPolicy) Cfg {
	return func(s *Server) error {
		s.policy = p
		return nil
	}
}

// WithMetrics sets the metrics engine.
func WithMetrics(m *metrics.Engine) Cfg {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	srv := &Server{
		clock:          clock.New(),
		table:          session.NewTable(0),
		sessionTimeout: DefaultSessionTimeout,
		policy:         session.ResetOnAccepted,
	}
	for _, cfg := range cfgs {
		if err := cfg(srv); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	if srv.metrics == nil {
		srv.metrics = metrics.New(prometheus.NewRegistry())
	}
	return srv, nil
}

// Table exposes the session table for inspection in tests.
func (s *Server) Table() *session.Table { return s.table }

// Run reads datagrams and dispatches them until the context is cancelled.
// On cancellation every live session is terminated with a GOODBYE and the
// transport is closed.
func (s *Server) Run(ctx context.Context) error {
	if s.tr == nil {
		tr, err := transport.Listen(s.port)
		if err != nil {
			return errors.Wrap(err, "open server transport failed")
		}
		s.tr = tr
	}
	defer s.tr.Close() // nolint: errcheck
	logger.WithField("addr", s.tr.LocalAddr().String()).Info("server listening")

	buf := make([]byte, maxDatagram)
	for {
		if ctx.Err() != nil {
			s.wg.Wait()
			return nil
		}
		n, from, err := s.tr.Receive(buf, readInterval)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return errors.Wrap(err, "receive datagram failed")
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		s.dispatch(ctx, raw, from)
	}
}

// dispatch decodes one raw datagram and routes it through the session table.
func (s *Server) dispatch(ctx context.Context, raw []byte, from net.Addr) {
	dg, err := wire.Decode(raw)
	if err != nil {
		// Malformed traffic is not attributable to a session.
		logger.WithField("from", from.String()).Debug("dropping malformed datagram")
		return
	}
	s.clock.Witness(dg.Clock)

	route, h := s.table.Route(dg.SessionID, from)
	switch route {
	case session.RouteDeliver:
	case session.RouteCollision:
		s.metrics.Collisions.Inc()
		logger.WithFields(log.HeaderFields(dg)).
			WithField("from", from.String()).
			Warn("session id in use by another peer, rejecting")
		// GOODBYE-shaped rejection keeps the wire consistent; the incumbent
		// session is untouched.
		s.send(&wire.Datagram{Command: wire.CommandGoodbye, SessionID: dg.SessionID}, from)
		return
	case session.RouteUnknown:
		if dg.Command != wire.CommandHello {
			logger.WithFields(log.HeaderFields(dg)).Debug("no session for datagram, dropping")
			return
		}
		var created bool
		h, created = s.table.Create(session.New(dg.SessionID, from, s.policy))
		if created {
			s.metrics.SessionsOpened.Inc()
			s.metrics.SessionsActive.Inc()
			s.wg.Add(1)
			go s.worker(ctx, h)
		}
	}

	select {
	case h.Inbox <- dg:
	default:
		logger.WithFields(log.HeaderFields(dg)).Warn("session inbox full, dropping datagram")
	}
}

// worker is the exclusive owner of one session: every inbound datagram and
// the idle timer for that session id pass through this goroutine, so session
// state is never mutated from two execution contexts.
func (s *Server) worker(ctx context.Context, h *session.Handle) {
	defer s.wg.Done()
	sess := h.Session
	defer func() {
		s.table.Remove(sess.ID())
		s.metrics.SessionsClosed.Inc()
		s.metrics.SessionsActive.Dec()
	}()

	idle := time.NewTimer(s.sessionTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			if res := sess.Shutdown(); res.Reply != nil {
				s.send(res.Reply, sess.Addr())
			}
			return
		case dg := <-h.Inbox:
			res := sess.Handle(dg)
			s.apply(sess, res, idle)
			if sess.State() == session.StateTerminated {
				return
			}
		case <-idle.C:
			if res := sess.Expire(); res.Reply != nil {
				s.metrics.IdleTimeouts.Inc()
				s.send(res.Reply, sess.Addr())
			}
			return
		}
	}
}

// apply sends the session's reply, feeds the metrics, and re-arms the idle
// timer when the session asked for it.
func (s *Server) apply(sess *session.Session, res session.Result, idle *time.Timer) {
	if res.Lost > 0 {
		s.metrics.PacketsLost.Add(float64(res.Lost))
	}
	if res.Duplicate {
		s.metrics.PacketsDuplicate.Inc()
	}
	if res.Violation {
		s.metrics.ProtocolErrors.Inc()
	}
	if res.Reply != nil {
		s.send(res.Reply, sess.Addr())
	}
	if res.ResetTimer && sess.State() != session.StateTerminated {
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(s.sessionTimeout)
	}
}

// send stamps the outbound datagram with the next logical clock value and
// transmits it. Safe to call from any worker; the transport and clock carry
// their own synchronization.
func (s *Server) send(dg *wire.Datagram, addr net.Addr) {
	dg.Clock = s.clock.Tick()
	if err := s.tr.Send(wire.Encode(dg), addr); err != nil {
		logger.WithError(err).WithFields(log.HeaderFields(dg)).Warn("send failed")
	}
}
