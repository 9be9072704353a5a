// Package counter provides the atomic counters the signal bus is built from.
//
// A Counter only grows. A Ref observes a Counter without keeping it alive,
// and a Linked counter records how much of another counter has been caught
// up to.
package counter

import (
	"sync/atomic"
)

// Counter is a monotonically increasing 64-bit counter that is safe for
// concurrent use. The zero value is a counter at 0.
type Counter struct {
	v atomic.Uint64
	_ [56]byte // pad to a cache line
}

// New creates a counter starting at initial.
func New(initial uint64) *Counter {
	c := &Counter{}
	c.v.Store(initial)
	return c
}

// Increase atomically adds delta to the counter.
func (c *Counter) Increase(delta uint64) {
	c.v.Add(delta)
}

// Value returns the current value.
func (c *Counter) Value() uint64 {
	return c.v.Load()
}
