// Package client implements the client side of the session protocol.
//
// The client performs the following steps:
//  1. Choose a random 32-bit session id, immutable for the session.
//  2. Send HELLO (sequence number 0) and block for the reply within a
//     bounded timeout; no reply, or a reply that is not a HELLO for this
//     session, fails the attempt with ErrHandshakeFailed.
//  3. Send each input line as a DATA payload with the next sequence number.
//     Every send advances the logical clock and (re)arms a single
//     outstanding idle window; the server's ALIVE clears it.
//  4. An inbound GOODBYE ends the session. A quit command, input EOF, idle
//     expiry or context cancellation sends a GOODBYE and ends it.
//
// The client mirrors the server's session semantics with one session: the
// same clock merge rule on every receive, the same magic/version check
// answered with GOODBYE, and no retransmission of anything.
package client
