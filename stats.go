package tempoz

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of a scheduler's counters.
type Stats struct {
	// Calls counts every Call made while the scheduler was live.
	Calls int64

	// Invocations counts how many times the target actually ran.
	Invocations int64

	// Dropped counts arguments that were overwritten by a newer call
	// or discarded by Cancel before they could reach the target.
	Dropped int64

	// LastInvocation is the clock time of the most recent target run.
	// Zero if the target never ran.
	LastInvocation time.Time
}

// counters backs Stats with lock-free fields.
type counters struct {
	calls       atomic.Int64
	invocations atomic.Int64
	dropped     atomic.Int64
	lastNanos   atomic.Int64
}

func (c *counters) invoked(at time.Time) {
	c.invocations.Add(1)
	c.lastNanos.Store(at.UnixNano())
}

func (c *counters) snapshot() Stats {
	s := Stats{
		Calls:       c.calls.Load(),
		Invocations: c.invocations.Load(),
		Dropped:     c.dropped.Load(),
	}
	if nanos := c.lastNanos.Load(); nanos != 0 {
		s.LastInvocation = time.Unix(0, nanos)
	}
	return s
}
