package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"sudp/internal/pkg/clock"
	"sudp/internal/pkg/log"
	"sudp/internal/pkg/session"
	"sudp/internal/pkg/transport"
	"sudp/internal/pkg/wire"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultIdleTimeout is the idle window for an unacknowledged send and the
// handshake reply deadline.
const DefaultIdleTimeout = 8 * time.Second

const maxDatagram = 2048

// Client implements the initiating, single-session role of the protocol.
type Client struct {
	host       string
	port       uint16
	serverAddr net.Addr

	tr    transport.Transport
	clock *clock.Clock

	id    uint32
	seq   uint32
	state session.State

	idleTimeout time.Duration
	input       io.Reader
	interactive bool

	done chan struct{}
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServer sets the server host and port to connect to.
func WithServer(host string, port uint16) Cfg {
	return func(c *Client) error {
		c.host = host
		c.port = port
		return nil
	}
}

// WithServerAddr sets a resolved server address, skipping hostname lookup.
func WithServerAddr(addr net.Addr) Cfg {
	return func(c *Client) error {
		c.serverAddr = addr
		return nil
	}
}

// WithTransport injects a transport, replacing the UDP socket the client
// would otherwise open. Used by tests.
func WithTransport(tr transport.Transport) Cfg {
	return func(c *Client) error {
		c.tr = tr
		return nil
	}
}

// WithIdleTimeout sets the idle timeout for sends and the handshake.
func WithIdleTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		if d <= 0 {
			return errors.Errorf("idle timeout %s out of range", d)
		}
		c.idleTimeout = d
		return nil
	}
}

// WithInput sets the source of DATA payload lines.
func WithInput(r io.Reader) Cfg {
	return func(c *Client) error {
		c.input = r
		return nil
	}
}

// WithInteractive enables the prompt and the 'q'/'eof' quit commands, for a
// client attached to a terminal.
func WithInteractive() Cfg {
	return func(c *Client) error {
		c.interactive = true
		return nil
	}
}

// WithSessionID fixes the session id instead of choosing one at random.
// Used by tests.
func WithSessionID(id uint32) Cfg {
	return func(c *Client) error {
		c.id = id
		return nil
	}
}

// NewClient creates a new Client with the given configuration. The session
// id is a random 32-bit value, immutable for the session's lifetime.
func NewClient(cfgs ...Cfg) (*Client, error) {
	c := &Client{
		clock:       clock.New(),
		id:          uuid.New().ID(),
		state:       session.StateAwaitingHello,
		idleTimeout: DefaultIdleTimeout,
		input:       os.Stdin,
		done:        make(chan struct{}),
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	return c, nil
}

// SessionID returns the client's immutable session id.
func (c *Client) SessionID() uint32 { return c.id }

// Connect performs the HELLO handshake. The reply must arrive within the
// idle timeout and must be a HELLO for this session; anything else fails the
// attempt with ErrHandshakeFailed. There is no automatic retry.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "connect cancelled")
	}
	if c.tr == nil {
		tr, err := transport.Open()
		if err != nil {
			return errors.Wrap(err, "open client transport failed")
		}
		c.tr = tr
	}
	if c.serverAddr == nil {
		addr, err := transport.Resolve(c.host, c.port)
		if err != nil {
			return errors.Wrap(err, "resolve server address failed")
		}
		c.serverAddr = addr
	}

	if err := c.send(&wire.Datagram{Command: wire.CommandHello, Seq: c.seq, SessionID: c.id}); err != nil {
		return errors.Wrap(err, "send hello failed")
	}
	c.seq++

	buf := make([]byte, maxDatagram)
	n, _, err := c.tr.Receive(buf, c.idleTimeout)
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, "no hello reply")
	}
	dg, err := wire.Decode(buf[:n])
	if err != nil {
		return errors.Wrap(ErrHandshakeFailed, "undecodable hello reply")
	}
	c.clock.Witness(dg.Clock)
	if !dg.Valid() || dg.SessionID != c.id || dg.Command != wire.CommandHello {
		return errors.Wrapf(ErrHandshakeFailed, "unexpected reply %s", dg)
	}
	c.state = session.StateActive
	logger.WithFields(log.HeaderFields(dg)).Info("handshake complete")
	return nil
}

// Run drives the session: each input line is sent as a DATA payload and arms
// the idle window; the server's ALIVE clears it. The session ends on an
// inbound GOODBYE, a quit command, input EOF, idle expiry, or context
// cancellation — all but the inbound GOODBYE send a GOODBYE of their own.
func (c *Client) Run(ctx context.Context) error {
	if c.state != session.StateActive {
		return ErrNotConnected
	}
	defer c.tr.Close() // nolint: errcheck
	defer close(c.done)

	lines := make(chan string)
	go readLines(c.input, lines)
	dgs := make(chan *wire.Datagram, 8)
	go c.receiveLoop(dgs)

	// The idle window opens on send, not on connect.
	idle := time.NewTimer(c.idleTimeout)
	defer idle.Stop()
	disarm(idle)

	if c.interactive {
		fmt.Println("enter data to send ('q' to quit)")
	}
	for {
		select {
		case <-ctx.Done():
			c.goodbye()
			return nil
		case line, ok := <-lines:
			if !ok || (c.interactive && (line == "q" || line == "eof")) {
				c.goodbye()
				return nil
			}
			if line == "" {
				continue
			}
			if err := c.send(&wire.Datagram{
				Command:   wire.CommandData,
				Seq:       c.seq,
				SessionID: c.id,
				Payload:   []byte(line),
			}); err != nil {
				return errors.Wrap(err, "send data failed")
			}
			c.seq++
			disarm(idle)
			idle.Reset(c.idleTimeout)
		case dg, ok := <-dgs:
			if !ok {
				return ErrTransportClosed
			}
			c.clock.Witness(dg.Clock)
			if !dg.Valid() {
				logger.WithFields(log.HeaderFields(dg)).Warn("bad magic or version")
				c.goodbye()
				return nil
			}
			switch dg.Command {
			case wire.CommandAlive:
				logger.WithFields(log.HeaderFields(dg)).Debug("server alive")
				disarm(idle)
			case wire.CommandGoodbye:
				logger.Info("server said goodbye, closing")
				c.state = session.StateTerminated
				return nil
			default:
				logger.WithFields(log.HeaderFields(dg)).Warn("unexpected command from server")
				c.goodbye()
				return nil
			}
		case <-idle.C:
			logger.WithField("timeout", c.idleTimeout.String()).Warn("idle timeout expired")
			c.goodbye()
			return nil
		}
	}
}

// goodbye sends the terminating GOODBYE once.
func (c *Client) goodbye() {
	if c.state == session.StateTerminated {
		return
	}
	if err := c.send(&wire.Datagram{Command: wire.CommandGoodbye, Seq: c.seq, SessionID: c.id}); err != nil {
		logger.WithError(err).Warn("send goodbye failed")
	}
	c.seq++
	c.state = session.StateTerminated
}

// send stamps the datagram with the next logical clock value and transmits
// it to the server.
func (c *Client) send(dg *wire.Datagram) error {
	dg.Clock = c.clock.Tick()
	if err := c.tr.Send(wire.Encode(dg), c.serverAddr); err != nil {
		return errors.Wrapf(err, "send %s failed", dg.Command)
	}
	logger.WithFields(log.HeaderFields(dg)).Debug("sent")
	return nil
}

// receiveLoop decodes inbound datagrams and hands this session's traffic to
// Run. Datagrams for other session ids are ignored; the loop ends when the
// transport closes.
func (c *Client) receiveLoop(dgs chan<- *wire.Datagram) {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := c.tr.Receive(buf, 0)
		if err != nil {
			close(dgs)
			return
		}
		dg, err := wire.Decode(buf[:n])
		if err != nil {
			logger.Debug("dropping malformed datagram")
			continue
		}
		if dg.SessionID != c.id {
			logger.WithFields(log.HeaderFields(dg)).Debug("ignoring datagram for another session")
			continue
		}
		select {
		case dgs <- dg:
		case <-c.done:
			return
		}
	}
}

func readLines(r io.Reader, lines chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines <- sc.Text()
	}
	close(lines)
}

// disarm stops a timer and drains a pending fire so a later Reset starts
// from a clean state.
func disarm(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
