package corert

import (
	"sync/atomic"
	"time"
)

// clock caches a monotonic reading and an offset, refreshed once per
// scheduler tick rather than on every call, grounded on the anchor+offset
// pattern this runtime's event-loop ancestor uses for its own tick clock,
// itself a Go-idiomatic analogue of a cached monotonic counter read.
type clock struct {
	anchor  time.Time
	elapsed atomic.Int64 // nanoseconds since anchor, as of the last refresh
}

func newClock() *clock {
	c := &clock{anchor: time.Now()}
	return c
}

// refresh updates the cached elapsed offset. Called once per scheduler
// loop iteration.
func (c *clock) refresh() {
	c.elapsed.Store(int64(time.Since(c.anchor)))
}

// nowMillis returns the cached time in milliseconds: the anchor's Unix
// time in milliseconds plus the monotonic offset measured since the clock
// was created, so it never goes backwards. This is the absolute-deadline
// currency (int64 ms) used throughout this runtime's deadline parameters.
func (c *clock) nowMillis() int64 {
	return c.anchor.UnixMilli() + c.elapsed.Load()/int64(time.Millisecond)
}

// Never is the deadline value meaning "wait forever."
const Never int64 = -1

// Immediate is the deadline value meaning "don't block at all."
const Immediate int64 = 0
