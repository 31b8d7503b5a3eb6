package state

import "sync/atomic"

// Clock counts board revisions. Every mutation ticks it, so observers can
// tell whether state moved on since they last looked.
type Clock struct {
	rev atomic.Int64
}

// Tick advances to the next revision and returns it.
func (c *Clock) Tick() int64 { return c.rev.Add(1) }

// Now returns the current revision without advancing it.
func (c *Clock) Now() int64 { return c.rev.Load() }
