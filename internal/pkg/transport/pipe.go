package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrClosed indicates use of a closed endpoint.
var ErrClosed = errors.New("endpoint closed")

// Network is an in-memory datagram fabric for tests: named endpoints exchange
// datagrams with source attribution and no delivery, ordering or uniqueness
// guarantees beyond what the test itself arranges.
type Network struct {
	mu        sync.Mutex
	endpoints map[string]*Pipe
}

// NewNetwork creates an empty fabric.
func NewNetwork() *Network {
	return &Network{endpoints: make(map[string]*Pipe)}
}

// Endpoint creates (or returns) the named endpoint.
func (n *Network) Endpoint(name string) *Pipe {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.endpoints[name]; ok {
		return p
	}
	p := &Pipe{
		network: n,
		addr:    pipeAddr(name),
		inbox:   make(chan pipeDatagram, 128),
		closed:  make(chan struct{}),
	}
	n.endpoints[name] = p
	return p
}

func (n *Network) lookup(name string) (*Pipe, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.endpoints[name]
	return p, ok
}

type pipeDatagram struct {
	payload []byte
	from    net.Addr
}

// Pipe is one endpoint on a Network, implementing Transport.
type Pipe struct {
	network *Network
	addr    pipeAddr
	inbox   chan pipeDatagram

	closeOnce sync.Once
	closed    chan struct{}
}

// Send implements Transport. Datagrams to unknown endpoints are dropped,
// matching the fire-and-forget contract.
func (p *Pipe) Send(b []byte, addr net.Addr) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	dst, ok := p.network.lookup(addr.String())
	if !ok {
		return nil
	}
	payload := make([]byte, len(b))
	copy(payload, b)
	select {
	case dst.inbox <- pipeDatagram{payload: payload, from: p.addr}:
	default:
		// Full inbox drops the datagram, like any saturated link.
	}
	return nil
}

// Receive implements Transport.
func (p *Pipe) Receive(b []byte, timeout time.Duration) (int, net.Addr, error) {
	var expiry <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expiry = t.C
	}
	select {
	case dg := <-p.inbox:
		n := copy(b, dg.payload)
		return n, dg.from, nil
	case <-expiry:
		return 0, nil, ErrTimeout
	case <-p.closed:
		return 0, nil, ErrClosed
	}
}

// LocalAddr implements Transport.
func (p *Pipe) LocalAddr() net.Addr { return p.addr }

// Close implements Transport.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }
