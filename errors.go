// Package seqgen - errors.go provides the error values returned by the
// generator together with typed errors carrying debugging context.

package seqgen

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Typed errors below unwrap to these, so callers can match
// with errors.Is and still reach the details with errors.As.
var (
	// ErrInvalidNodeID is returned at construction when the node ID does not
	// fit in the layout's node field.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrInvalidClock is returned by NextID when the clock reads earlier than
	// the last timestamp this generator used. It is not retried internally.
	ErrInvalidClock = errors.New("invalid system clock")
)

// NodeIDError reports a node ID outside [0, Max].
type NodeIDError struct {
	// NodeID is the rejected value.
	NodeID int64

	// Max is the largest node ID the layout accepts.
	Max int64
}

// Error implements the error interface.
func (e *NodeIDError) Error() string {
	return fmt.Sprintf("invalid node ID: %d (must be between 0 and %d)", e.NodeID, e.Max)
}

// Unwrap returns ErrInvalidNodeID.
func (e *NodeIDError) Unwrap() error {
	return ErrInvalidNodeID
}

// ClockError reports a clock regression detected by NextID.
//
// Timestamps are milliseconds relative to the generator's epoch.
//
//	var clockErr *seqgen.ClockError
//	if errors.As(err, &clockErr) {
//	    logger.Error("clock regression",
//	        zap.Int64("drift_ms", clockErr.Drift()),
//	        zap.Int64("node", clockErr.NodeID))
//	}
type ClockError struct {
	// Current is the timestamp just read from the clock.
	Current int64

	// Last is the timestamp of the most recently minted ID.
	Last int64

	// NodeID identifies the generator that saw the regression.
	NodeID int64
}

// Error implements the error interface.
func (e *ClockError) Error() string {
	return fmt.Sprintf("invalid system clock: moved backwards by %dms (current=%d last=%d node=%d)",
		e.Drift(), e.Current, e.Last, e.NodeID)
}

// Unwrap returns ErrInvalidClock.
func (e *ClockError) Unwrap() error {
	return ErrInvalidClock
}

// Drift returns how far the clock went back, in milliseconds. Always positive.
func (e *ClockError) Drift() int64 {
	return e.Last - e.Current
}

// DriftDuration returns Drift as a time.Duration.
func (e *ClockError) DriftDuration() time.Duration {
	return time.Duration(e.Drift()) * time.Millisecond
}

// GetClockError extracts a ClockError from an error chain.
func GetClockError(err error) (*ClockError, bool) {
	var clockErr *ClockError
	if errors.As(err, &clockErr) {
		return clockErr, true
	}
	return nil, false
}

// GetNodeIDError extracts a NodeIDError from an error chain.
func GetNodeIDError(err error) (*NodeIDError, bool) {
	var nodeErr *NodeIDError
	if errors.As(err, &nodeErr) {
		return nodeErr, true
	}
	return nil, false
}
