package client

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"sudp/internal/pkg/transport"
	"sudp/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeServer is a scripted peer for driving the client.
type fakeServer struct {
	t  *testing.T
	tr *transport.Pipe
}

func newFakeServer(t *testing.T, network *transport.Network) *fakeServer {
	return &fakeServer{t: t, tr: network.Endpoint("server")}
}

func (f *fakeServer) recv() (*wire.Datagram, net.Addr) {
	f.t.Helper()
	buf := make([]byte, 2048)
	n, from, err := f.tr.Receive(buf, 2*time.Second)
	require.NoError(f.t, err)
	dg, err := wire.Decode(buf[:n])
	require.NoError(f.t, err)
	return dg, from
}

func (f *fakeServer) send(dg *wire.Datagram, to net.Addr) {
	f.t.Helper()
	require.NoError(f.t, f.tr.Send(wire.Encode(dg), to))
}

func newTestClient(t *testing.T, network *transport.Network, cfgs ...Cfg) *Client {
	t.Helper()
	cfgs = append([]Cfg{
		WithTransport(network.Endpoint("client")),
		WithServerAddr(network.Endpoint("server").LocalAddr()),
		WithSessionID(42),
		WithIdleTimeout(500 * time.Millisecond),
	}, cfgs...)
	c, err := NewClient(cfgs...)
	require.NoError(t, err)
	return c
}

func TestConnectAndRun(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	c := newTestClient(t, network, WithInput(strings.NewReader("hi\nthere\n")))

	done := make(chan struct{})
	go func() {
		defer close(done)

		hello, from := srv.recv()
		require.Equal(t, wire.CommandHello, hello.Command)
		require.Equal(t, uint32(0), hello.Seq)
		require.Equal(t, uint32(42), hello.SessionID)
		require.Equal(t, uint64(1), hello.Clock, "the hello is the client's first clock event")
		srv.send(&wire.Datagram{Command: wire.CommandHello, Seq: 0, SessionID: 42, Clock: 50}, from)

		data, from := srv.recv()
		require.Equal(t, wire.CommandData, data.Command)
		require.Equal(t, uint32(1), data.Seq)
		require.Equal(t, "hi", string(data.Payload))
		require.Equal(t, uint64(52), data.Clock, "merge of the server's clock, then one send tick")
		srv.send(&wire.Datagram{Command: wire.CommandAlive, Seq: 1, SessionID: 42, Clock: 53}, from)

		data, from = srv.recv()
		require.Equal(t, wire.CommandData, data.Command)
		require.Equal(t, uint32(2), data.Seq)
		require.Equal(t, "there", string(data.Payload))
		srv.send(&wire.Datagram{Command: wire.CommandAlive, Seq: 2, SessionID: 42, Clock: 55}, from)

		bye, _ := srv.recv()
		require.Equal(t, wire.CommandGoodbye, bye.Command)
		require.Equal(t, uint32(3), bye.Seq)
	}()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Run(ctx))
	<-done
}

func TestConnectTimeout(t *testing.T) {
	network := transport.NewNetwork()
	newFakeServer(t, network) // present but silent
	c := newTestClient(t, network, WithIdleTimeout(100*time.Millisecond))

	err := c.Connect(context.Background())
	require.True(t, errors.Is(err, ErrHandshakeFailed))
}

func TestConnectWrongCommand(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	c := newTestClient(t, network)

	go func() {
		_, from := srv.recv()
		srv.send(&wire.Datagram{Command: wire.CommandAlive, Seq: 0, SessionID: 42}, from)
	}()
	err := c.Connect(context.Background())
	require.True(t, errors.Is(err, ErrHandshakeFailed))
}

func TestConnectWrongSession(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	c := newTestClient(t, network, WithIdleTimeout(100*time.Millisecond))

	go func() {
		_, from := srv.recv()
		srv.send(&wire.Datagram{Command: wire.CommandHello, Seq: 0, SessionID: 41}, from)
	}()
	err := c.Connect(context.Background())
	require.True(t, errors.Is(err, ErrHandshakeFailed))
}

func TestRunBeforeConnect(t *testing.T) {
	c := newTestClient(t, transport.NewNetwork())
	require.True(t, errors.Is(c.Run(context.Background()), ErrNotConnected))
}

func TestServerGoodbyeEndsRun(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	blocked, _ := io.Pipe() // input that never yields a line
	c := newTestClient(t, network, WithInput(blocked))

	go func() {
		_, from := srv.recv()
		srv.send(&wire.Datagram{Command: wire.CommandHello, Seq: 0, SessionID: 42}, from)
		srv.send(&wire.Datagram{Command: wire.CommandGoodbye, Seq: 1, SessionID: 42}, from)
	}()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Run(ctx))
}

func TestIdleTimeoutSendsGoodbye(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	pr, pw := io.Pipe()
	c := newTestClient(t, network,
		WithInput(pr),
		WithIdleTimeout(150*time.Millisecond),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, from := srv.recv()
		srv.send(&wire.Datagram{Command: wire.CommandHello, Seq: 0, SessionID: 42}, from)

		data, _ := srv.recv()
		require.Equal(t, wire.CommandData, data.Command)
		// Never acknowledge: the client's idle window must expire.
		bye, _ := srv.recv()
		require.Equal(t, wire.CommandGoodbye, bye.Command)
	}()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	go func() {
		_, _ = pw.Write([]byte("unacknowledged\n"))
	}()
	require.NoError(t, c.Run(ctx))
	<-done
}

func TestQuitCommand(t *testing.T) {
	network := transport.NewNetwork()
	srv := newFakeServer(t, network)
	c := newTestClient(t, network,
		WithInput(strings.NewReader("q\n")),
		WithInteractive(),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, from := srv.recv()
		srv.send(&wire.Datagram{Command: wire.CommandHello, Seq: 0, SessionID: 42}, from)
		bye, _ := srv.recv()
		require.Equal(t, wire.CommandGoodbye, bye.Command, "quit sends goodbye, not data")
	}()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Run(ctx))
	<-done
}
