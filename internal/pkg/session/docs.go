// Package session implements the per-conversation protocol state machine and
// the table that owns every live session in a process.
//
// A Session tracks one peer conversation: its state, the next sequence number
// it will accept, and the peer address it is bound to. Inbound DATA is
// classified against the expected sequence number:
//
//	seq == expected      accepted, acknowledged with ALIVE
//	seq >  expected      every skipped number is reported lost, then accepted
//	seq == expected - 1  duplicate, discarded silently
//	seq <  expected - 1  protocol violation, answered with GOODBYE
//
// Sessions are not safe for concurrent use. The required discipline is
// single-owner serialization: all events for one session id — inbound
// datagrams and the idle-timer expiry alike — flow through the one worker
// that owns the session, and that worker is the only thing that mutates it.
// The Table is the shared index and carries its own lock.
package session
