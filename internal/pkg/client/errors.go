package client

import "github.com/pkg/errors"

// ErrHandshakeFailed indicates no valid HELLO reply arrived within the
// timeout. Fatal for the connection attempt; never retried automatically.
var ErrHandshakeFailed = errors.New("handshake failed")

// ErrNotConnected indicates Run was called before a successful Connect.
var ErrNotConnected = errors.New("not connected")

// ErrTransportClosed indicates the transport failed underneath a running
// session.
var ErrTransportClosed = errors.New("transport closed")
