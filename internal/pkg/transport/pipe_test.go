package transport

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPipeSendReceive(t *testing.T) {
	network := NewNetwork()
	a := network.Endpoint("a")
	b := network.Endpoint("b")

	require.NoError(t, a.Send([]byte("ping"), b.LocalAddr()))

	buf := make([]byte, 16)
	n, from, err := b.Receive(buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
	require.Equal(t, a.LocalAddr().String(), from.String())
}

func TestPipeTimeout(t *testing.T) {
	p := NewNetwork().Endpoint("lonely")
	_, _, err := p.Receive(make([]byte, 16), 10*time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestPipeUnknownDestinationDropped(t *testing.T) {
	p := NewNetwork().Endpoint("a")
	require.NoError(t, p.Send([]byte("void"), pipeAddr("nowhere")))
}

func TestPipeClose(t *testing.T) {
	p := NewNetwork().Endpoint("a")
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	_, _, err := p.Receive(make([]byte, 16), 0)
	require.True(t, errors.Is(err, ErrClosed))
	require.True(t, errors.Is(p.Send(nil, pipeAddr("a")), ErrClosed))
}
