package seqgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := SystemClock{}.NowMillis()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()

	prev := c.NowMillis()
	assert.InDelta(t, time.Now().UnixMilli(), prev, 50)

	for i := 0; i < 1000; i++ {
		now := c.NowMillis()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}

func TestClockFunc(t *testing.T) {
	var c Clock = ClockFunc(func() int64 { return 42 })
	assert.Equal(t, int64(42), c.NowMillis())
}
