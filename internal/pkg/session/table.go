package session

import (
	"net"
	"sync"

	"sudp/internal/pkg/wire"
)

// DefaultInboxSize is the per-session inbox channel capacity.
const DefaultInboxSize = 64

// Handle pairs a Session with the inbox channel its owning worker drains.
// The table hands out handles; only one worker may consume an inbox.
type Handle struct {
	Session *Session
	Inbox   chan *wire.Datagram
}

// Route classifies an inbound datagram against the table.
type Route uint8

const (
	// RouteDeliver: the session is known and the source address matches its
	// binding; deliver to the session's inbox.
	RouteDeliver Route = iota

	// RouteCollision: the session id is in use by a different peer address.
	// The colliding peer is rejected; the incumbent session is untouched.
	RouteCollision

	// RouteUnknown: no session holds this id. Only a HELLO may create one.
	RouteUnknown
)

// Table owns all live sessions of a process and the session_id→peer_address
// binding used for collision detection. A Session owns its bound address;
// the table is just the index, so the two can never drift apart.
type Table struct {
	mu        sync.Mutex
	handles   map[uint32]*Handle
	inboxSize int
}

// NewTable creates an empty session table. inboxSize <= 0 selects
// DefaultInboxSize.
func NewTable(inboxSize int) *Table {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &Table{
		handles:   make(map[uint32]*Handle),
		inboxSize: inboxSize,
	}
}

// Route looks up the session id and checks the address binding.
// The returned handle is non-nil only for RouteDeliver.
func (t *Table) Route(id uint32, from net.Addr) (Route, *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.handles[id]
	if !ok {
		return RouteUnknown, nil
	}
	if h.Session.Addr().String() != from.String() {
		return RouteCollision, nil
	}
	return RouteDeliver, h
}

// Create inserts a new session and returns its handle. If the id is already
// present the existing handle is returned and created is false.
func (t *Table) Create(sess *Session) (h *Handle, created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.handles[sess.ID()]; ok {
		return h, false
	}
	h = &Handle{
		Session: sess,
		Inbox:   make(chan *wire.Datagram, t.inboxSize),
	}
	t.handles[sess.ID()] = h
	return h, true
}

// Remove reaps a session from the table. Called exactly once by the owning
// worker when the session reaches StateTerminated.
func (t *Table) Remove(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handles, id)
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}

// Handles returns a snapshot of all live handles, for shutdown sweeps.
func (t *Table) Handles() []*Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Handle, 0, len(t.handles))
	for _, h := range t.handles {
		out = append(out, h)
	}
	return out
}
