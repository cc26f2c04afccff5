// Package transport provides the raw datagram collaborator: fire-and-forget
// send and timeout-bounded receive of opaque byte buffers. The protocol
// engine never assumes ordering or reliability from it.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout indicates no datagram arrived within the receive timeout.
var ErrTimeout = errors.New("receive timed out")

// Transport moves opaque datagrams to and from peer addresses.
type Transport interface {
	// Send transmits p to addr with no delivery guarantee.
	Send(p []byte, addr net.Addr) error

	// Receive fills p with the next datagram and reports its source.
	// A timeout of zero blocks indefinitely; otherwise a quiet interval of
	// timeout fails with ErrTimeout.
	Receive(p []byte, timeout time.Duration) (int, net.Addr, error)

	// LocalAddr returns the local endpoint address.
	LocalAddr() net.Addr

	// Close releases the endpoint and unblocks any pending Receive.
	Close() error
}

// UDP is the production Transport over a UDP socket.
type UDP struct {
	conn *net.UDPConn
}

// Listen binds a UDP transport to the given local port.
func Listen(port uint16) (*UDP, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, errors.Wrapf(err, "listen udp port %d failed", port)
	}
	return &UDP{conn: conn}, nil
}

// Open binds a UDP transport to an ephemeral local port, for client use.
func Open() (*UDP, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, errors.Wrap(err, "open udp socket failed")
	}
	return &UDP{conn: conn}, nil
}

// Resolve turns a hostname and port into a sendable address.
func Resolve(host string, port uint16) (net.Addr, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s:%d failed", host, port)
	}
	return addr, nil
}

// Send implements Transport.
func (u *UDP) Send(p []byte, addr net.Addr) error {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return errors.Errorf("send to non-udp address %q failed", addr)
	}
	if _, err := u.conn.WriteToUDP(p, udpAddr); err != nil {
		return errors.Wrapf(err, "send to %s failed", addr)
	}
	return nil
}

// Receive implements Transport.
func (u *UDP) Receive(p []byte, timeout time.Duration) (int, net.Addr, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := u.conn.SetReadDeadline(deadline); err != nil {
		return 0, nil, errors.Wrap(err, "set read deadline failed")
	}
	n, addr, err := u.conn.ReadFromUDP(p)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, nil, ErrTimeout
		}
		return 0, nil, errors.Wrap(err, "read datagram failed")
	}
	return n, addr, nil
}

// LocalAddr implements Transport.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Close implements Transport.
func (u *UDP) Close() error {
	return errors.Wrap(u.conn.Close(), "close udp socket failed")
}
