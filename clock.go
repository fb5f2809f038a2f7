package seqgen

import "time"

// Clock is the time source of a generator, in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// NowMillis calls f.
func (f ClockFunc) NowMillis() int64 {
	return f()
}

// SystemClock reads the wall clock. Steps of the system clock (NTP, manual
// changes) are visible to the generator and a backward step makes NextID fail
// with ErrInvalidClock until the clock catches up.
type SystemClock struct{}

// NowMillis returns time.Now() in Unix milliseconds.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MonotonicClock derives wall time from a reference reading plus the
// monotonic time elapsed since then, so it never goes backwards while the
// process runs. It drifts from the wall clock by however much the wall clock
// is stepped after creation.
type MonotonicClock struct {
	anchor time.Time
}

// NewMonotonicClock anchors a MonotonicClock at the current time.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{anchor: time.Now()}
}

// NowMillis returns the anchor's wall time advanced by the monotonic elapsed time.
func (c *MonotonicClock) NowMillis() int64 {
	return c.anchor.Add(time.Since(c.anchor)).UnixMilli()
}
