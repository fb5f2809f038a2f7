// Package seqgen - layout.go describes how the 63 usable bits of an ID are
// split between timestamp, node ID and counter.

package seqgen

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default field widths. They sum to 63 so the ID stays non-negative in an int64.
const (
	// TimestampBits holds milliseconds since the epoch (~69 years).
	TimestampBits = 41

	// NodeIDBits allows 1024 independent nodes.
	NodeIDBits = 10

	// CounterBits allows 4096 IDs per millisecond per node.
	CounterBits = 12

	// MaxNodeID is the largest node ID for the default layout (1023).
	MaxNodeID = -1 ^ (-1 << NodeIDBits)

	// MaxCounter is the largest counter value for the default layout (4095).
	MaxCounter = -1 ^ (-1 << CounterBits)

	// usableBits excludes the sign bit of int64.
	usableBits = 63
)

// ErrInvalidLayout is returned when a Layout violates the width invariant.
var ErrInvalidLayout = errors.New("invalid bit layout")

// Layout is the bit allocation of an ID, most significant field first.
//
// A layout is fixed for the lifetime of a generator and shared by its encode
// and decode paths. IDs carry no header naming their layout: decoding with a
// different layout than the one that minted the ID silently returns wrong
// fields, so callers mixing layouts must track which one produced what.
type Layout struct {
	TimestampBits int
	NodeIDBits    int
	CounterBits   int
}

// DefaultLayout is the classic 41/10/12 split.
var DefaultLayout = Layout{
	TimestampBits: TimestampBits,
	NodeIDBits:    NodeIDBits,
	CounterBits:   CounterBits,
}

// Validate checks that every field has at least one bit and that the fields
// fit in the 63 usable bits of an int64.
func (l Layout) Validate() error {
	if l.TimestampBits < 1 {
		return fmt.Errorf("%w: timestamp bits must be positive, got %d", ErrInvalidLayout, l.TimestampBits)
	}
	if l.NodeIDBits < 1 {
		return fmt.Errorf("%w: node ID bits must be positive, got %d", ErrInvalidLayout, l.NodeIDBits)
	}
	if l.CounterBits < 1 {
		return fmt.Errorf("%w: counter bits must be positive, got %d", ErrInvalidLayout, l.CounterBits)
	}
	if total := l.TimestampBits + l.NodeIDBits + l.CounterBits; total > usableBits {
		return fmt.Errorf("%w: total bits must be at most %d, got %d (%d+%d+%d)",
			ErrInvalidLayout, usableBits, total, l.TimestampBits, l.NodeIDBits, l.CounterBits)
	}
	return nil
}

// IsZero reports whether no field width has been set.
func (l Layout) IsZero() bool {
	return l.TimestampBits == 0 && l.NodeIDBits == 0 && l.CounterBits == 0
}

// MaxNodeID returns the largest node ID the layout can encode.
func (l Layout) MaxNodeID() int64 {
	return -1 ^ (-1 << l.NodeIDBits)
}

// MaxCounter returns the largest counter value per millisecond.
func (l Layout) MaxCounter() int64 {
	return -1 ^ (-1 << l.CounterBits)
}

// MaxTimestamp returns the largest timestamp offset, in milliseconds.
func (l Layout) MaxTimestamp() int64 {
	return -1 ^ (-1 << l.TimestampBits)
}

// Lifespan returns how long after the epoch the timestamp field overflows.
func (l Layout) Lifespan() time.Duration {
	// time.Duration tops out at ~292 years; wider timestamp fields saturate.
	if l.TimestampBits >= 44 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(l.MaxTimestamp()+1) * time.Millisecond
}

// nodeShift is the position of the node ID field.
func (l Layout) nodeShift() int {
	return l.CounterBits
}

// timestampShift is the position of the timestamp field.
func (l Layout) timestampShift() int {
	return l.NodeIDBits + l.CounterBits
}

// Compose packs the three fields into an ID. timestamp is relative to the
// epoch. Inputs are not range-checked; callers pass values already in range.
func (l Layout) Compose(timestamp, nodeID, counter int64) int64 {
	return timestamp<<l.timestampShift() |
		nodeID<<l.nodeShift() |
		counter
}

// Decompose is the inverse of Compose. The returned timestamp is relative to
// the epoch.
//
//	timestamp = id >> (NodeIDBits + CounterBits)
//	nodeID    = (id >> CounterBits) & MaxNodeID
//	counter   = id & MaxCounter
func (l Layout) Decompose(id int64) (timestamp, nodeID, counter int64) {
	timestamp = id >> l.timestampShift()
	nodeID = (id >> l.nodeShift()) & l.MaxNodeID()
	counter = id & l.MaxCounter()
	return
}

// String returns the widths, e.g. "41/10/12".
func (l Layout) String() string {
	return fmt.Sprintf("%d/%d/%d", l.TimestampBits, l.NodeIDBits, l.CounterBits)
}
