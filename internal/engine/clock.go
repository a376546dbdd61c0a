package engine

import "sync/atomic"

// Clock is the loop's logical clock. Every recorded action is stamped with
// a strictly increasing seq from Next, so the trace orders by seq and never
// by wall time.
//
// Clock is safe for concurrent use, though only the Run goroutine calls
// Next in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1. Used to append
// to an existing trace without reusing a seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
