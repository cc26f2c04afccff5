// Package wire implements the fixed 20-byte datagram header shared by every
// peer on the wire. Encoding and decoding are pure and stateless; protocol
// validation (magic, version, session binding) is the caller's job because it
// requires session state.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Wire constants. Every conforming implementation must reproduce these
// byte-for-byte, big-endian.
const (
	Magic   uint16 = 0xC461
	Version uint8  = 1

	// HeaderSize is the fixed header size:
	// Magic(2) + Version(1) + Command(1) + Seq(4) + SessionID(4) + Clock(8).
	HeaderSize = 20
)

// Command identifies the purpose of a datagram.
type Command uint8

// Protocol commands.
const (
	CommandHello   Command = 1
	CommandData    Command = 2
	CommandAlive   Command = 3
	CommandGoodbye Command = 4
)

// String returns the protocol name of the command.
func (c Command) String() string {
	switch c {
	case CommandHello:
		return "HELLO"
	case CommandData:
		return "DATA"
	case CommandAlive:
		return "ALIVE"
	case CommandGoodbye:
		return "GOODBYE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
	}
}

// Datagram is one decoded protocol message: the fixed header plus an opaque
// payload. The payload is only meaningful for DATA.
type Datagram struct {
	Magic     uint16
	Version   uint8
	Command   Command
	Seq       uint32
	SessionID uint32
	Clock     uint64
	Payload   []byte
}

// Encode serializes the datagram for transmission. Magic and version are
// stamped from the wire constants; the caller never sets them.
func Encode(dg *Datagram) []byte {
	buf := make([]byte, HeaderSize+len(dg.Payload))
	binary.BigEndian.PutUint16(buf[0:2], Magic)
	buf[2] = Version
	buf[3] = uint8(dg.Command)
	binary.BigEndian.PutUint32(buf[4:8], dg.Seq)
	binary.BigEndian.PutUint32(buf[8:12], dg.SessionID)
	binary.BigEndian.PutUint64(buf[12:20], dg.Clock)
	copy(buf[HeaderSize:], dg.Payload)
	return buf
}

// Decode deserializes a raw datagram. It fails only on short input; a bad
// magic or version still decodes so the session layer can answer it.
func Decode(data []byte) (*Datagram, error) {
	if len(data) < HeaderSize {
		return nil, ErrMalformedHeader
	}
	dg := &Datagram{
		Magic:     binary.BigEndian.Uint16(data[0:2]),
		Version:   data[2],
		Command:   Command(data[3]),
		Seq:       binary.BigEndian.Uint32(data[4:8]),
		SessionID: binary.BigEndian.Uint32(data[8:12]),
		Clock:     binary.BigEndian.Uint64(data[12:20]),
	}
	if len(data) > HeaderSize {
		dg.Payload = make([]byte, len(data)-HeaderSize)
		copy(dg.Payload, data[HeaderSize:])
	}
	return dg, nil
}

// Valid reports whether the header carries the expected magic and version.
func (dg *Datagram) Valid() bool {
	return dg.Magic == Magic && dg.Version == Version
}

func (dg *Datagram) String() string {
	return fmt.Sprintf("%s seq=%d session=%08x clock=%d len=%d",
		dg.Command, dg.Seq, dg.SessionID, dg.Clock, len(dg.Payload))
}
