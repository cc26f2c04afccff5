// Package server implements the server side of the session protocol.
//
// The server performs the following steps:
//  1. Listens for datagrams on a UDP port and decodes each header;
//     undecodable datagrams are dropped silently.
//  2. Routes each datagram through the session table. A known session id is
//     delivered only when the source address matches the session's binding;
//     a different source is a collision and is rejected with a GOODBYE while
//     the incumbent session stays untouched.
//  3. Creates a session on the first HELLO for an unseen session id, bound
//     to the sender's address, and starts one worker goroutine that owns it.
//  4. The worker replies HELLO, then acknowledges each accepted DATA with an
//     ALIVE, reporting skipped sequence numbers as lost and discarding
//     duplicates.
//  5. A GOODBYE from the peer, any protocol violation, or an idle timeout
//     answers with GOODBYE, terminates the session and reaps it from the
//     table.
//
// Processing for different session ids runs fully in parallel; processing
// for one session id is serialized through its worker's inbox channel. The
// logical clock is shared by all sessions and advances exactly once per send
// and per receive.
package server
