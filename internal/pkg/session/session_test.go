package session

import (
	"net"
	"testing"

	"sudp/internal/pkg/wire"

	"github.com/stretchr/testify/require"
)

var peerAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}

func hello(seq uint32) *wire.Datagram {
	return &wire.Datagram{Magic: wire.Magic, Version: wire.Version, Command: wire.CommandHello, Seq: seq, SessionID: 7}
}

func data(seq uint32, payload string) *wire.Datagram {
	return &wire.Datagram{Magic: wire.Magic, Version: wire.Version, Command: wire.CommandData, Seq: seq, SessionID: 7, Payload: []byte(payload)}
}

func active(t *testing.T, policy TimerPolicy, initialSeq uint32) *Session {
	t.Helper()
	s := New(7, peerAddr, policy)
	res := s.Handle(hello(initialSeq))
	require.Equal(t, StateActive, s.State())
	require.NotNil(t, res.Reply)
	return s
}

func TestHelloEstablishes(t *testing.T) {
	s := New(7, peerAddr, ResetOnAccepted)
	require.Equal(t, StateAwaitingHello, s.State())

	res := s.Handle(hello(3))
	require.Equal(t, StateActive, s.State())
	require.Equal(t, uint32(4), s.Expected())
	require.True(t, res.Accepted)
	require.True(t, res.ResetTimer)
	require.Equal(t, wire.CommandHello, res.Reply.Command)
	require.Equal(t, uint32(3), res.Reply.Seq, "hello reply echoes the initiator's sequence number")
	require.Equal(t, uint32(7), res.Reply.SessionID)
}

func TestNonHelloWhileAwaiting(t *testing.T) {
	s := New(7, peerAddr, ResetOnAccepted)
	res := s.Handle(data(1, "nope"))
	require.True(t, res.Violation)
	require.Equal(t, wire.CommandGoodbye, res.Reply.Command)
	require.Equal(t, StateTerminated, s.State())
}

func TestDataInOrder(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	res := s.Handle(data(1, "hi"))
	require.True(t, res.Accepted)
	require.True(t, res.ResetTimer)
	require.Zero(t, res.Lost)
	require.Equal(t, wire.CommandAlive, res.Reply.Command)
	require.Equal(t, uint32(1), res.Reply.Seq)
	require.Equal(t, uint32(2), s.Expected())
}

func TestDataGapReportsLost(t *testing.T) {
	s := active(t, ResetOnAccepted, 4) // expected becomes 5
	res := s.Handle(data(7, "late"))
	require.True(t, res.Accepted)
	require.Equal(t, uint32(2), res.Lost, "sequence numbers 5 and 6 are lost")
	require.Equal(t, wire.CommandAlive, res.Reply.Command)
	require.Equal(t, uint32(7), res.Reply.Seq)
	require.Equal(t, uint32(8), s.Expected())
	require.Equal(t, StateActive, s.State())
}

func TestDataDuplicateDiscarded(t *testing.T) {
	s := active(t, ResetOnAccepted, 4)
	res := s.Handle(data(4, "again"))
	require.True(t, res.Duplicate)
	require.False(t, res.Accepted)
	require.False(t, res.ResetTimer)
	require.Nil(t, res.Reply)
	require.Equal(t, uint32(5), s.Expected())
	require.Equal(t, StateActive, s.State())
}

func TestDataOutOfOrderTerminates(t *testing.T) {
	s := active(t, ResetOnAccepted, 4)
	res := s.Handle(data(3, "ancient"))
	require.True(t, res.Violation)
	require.Equal(t, wire.CommandGoodbye, res.Reply.Command)
	require.Equal(t, StateTerminated, s.State())
}

func TestGoodbyeTerminates(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	res := s.Handle(&wire.Datagram{Magic: wire.Magic, Version: wire.Version, Command: wire.CommandGoodbye, Seq: 1, SessionID: 7})
	require.False(t, res.Violation)
	require.Equal(t, wire.CommandGoodbye, res.Reply.Command)
	require.Equal(t, StateTerminated, s.State())
}

func TestUnexpectedCommandTerminates(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	res := s.Handle(&wire.Datagram{Magic: wire.Magic, Version: wire.Version, Command: wire.CommandAlive, Seq: 1, SessionID: 7})
	require.True(t, res.Violation)
	require.Equal(t, StateTerminated, s.State())
}

func TestBadMagicTerminatesAnyState(t *testing.T) {
	for _, setup := range []func(t *testing.T) *Session{
		func(t *testing.T) *Session { return New(7, peerAddr, ResetOnAccepted) },
		func(t *testing.T) *Session { return active(t, ResetOnAccepted, 0) },
	} {
		s := setup(t)
		dg := data(1, "x")
		dg.Magic = 0xBEEF
		res := s.Handle(dg)
		require.True(t, res.Violation)
		require.Equal(t, wire.CommandGoodbye, res.Reply.Command)
		require.Equal(t, StateTerminated, s.State())
	}
}

func TestTerminatedIsInert(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	s.Handle(&wire.Datagram{Magic: wire.Magic, Version: wire.Version, Command: wire.CommandGoodbye, SessionID: 7})
	require.Equal(t, StateTerminated, s.State())

	res := s.Handle(data(1, "ghost"))
	require.Nil(t, res.Reply)
	res = s.Expire()
	require.Nil(t, res.Reply)
	res = s.Shutdown()
	require.Nil(t, res.Reply)
}

func TestExpireOnce(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	res := s.Expire()
	require.Equal(t, wire.CommandGoodbye, res.Reply.Command)
	require.Equal(t, StateTerminated, s.State())
	require.Nil(t, s.Expire().Reply, "a second expiry must not re-emit goodbye")
}

func TestGoodbyeCarriesExpected(t *testing.T) {
	s := active(t, ResetOnAccepted, 0)
	s.Handle(data(1, "a"))
	res := s.Expire()
	require.Equal(t, uint32(2), res.Reply.Seq)
}

func TestTimerPolicyAny(t *testing.T) {
	s := active(t, ResetOnAny, 4)
	res := s.Handle(data(4, "dup"))
	require.True(t, res.Duplicate)
	require.True(t, res.ResetTimer, "ResetOnAny re-arms even for duplicates")
}

func TestParseTimerPolicy(t *testing.T) {
	p, err := ParseTimerPolicy("accepted")
	require.NoError(t, err)
	require.Equal(t, ResetOnAccepted, p)
	p, err = ParseTimerPolicy("any")
	require.NoError(t, err)
	require.Equal(t, ResetOnAny, p)
	_, err = ParseTimerPolicy("sometimes")
	require.Error(t, err)
}
