package engine

import "sync/atomic"

// Clock is the monotonic logical clock that orders committed fixes.
//
// Every commit in a run is stamped with a strictly increasing seq from the
// run's clock, so the commit log has one total order even when partitions
// are corrected concurrently. Wall time is never used for ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
