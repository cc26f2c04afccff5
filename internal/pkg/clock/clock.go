// Package clock implements the process-wide Lamport logical clock.
//
// One Clock instance is shared by every session in a process. Sessions run
// concurrently but the counter is one value, so all access goes through a
// single mutex. Every send and every receive advances the clock exactly once.
package clock

import "sync"

// Clock is a 64-bit monotonically non-decreasing logical counter.
// The zero value is not usable; call New.
type Clock struct {
	mu  sync.Mutex
	val uint64
}

// New creates a Clock starting at zero.
func New() *Clock {
	return &Clock{}
}

// Tick advances the clock for a local event (a send) and returns the new
// value.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val++
	return c.val
}

// Witness merges a peer's clock value observed on receive: the clock becomes
// v+1 when v is ahead of the local value, and advances by one otherwise.
// Returns the new value.
func (c *Clock) Witness(v uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v > c.val {
		c.val = v + 1
	} else {
		c.val++
	}
	return c.val
}

// Now returns the current value without advancing the clock.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}
