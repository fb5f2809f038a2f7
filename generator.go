// Package seqgen generates unique, time-ordered 64-bit identifiers for
// distributed deployments.
//
// # Overview
//
// Every running instance is given a distinct node ID by whoever deploys it.
// Each instance then mints IDs on its own, without talking to the others, by
// packing a timestamp, its node ID and a per-millisecond counter into one
// integer. Two instances with different node IDs can never produce the same
// value.
//
// # ID Structure (63 bits, default layout)
//
//	┌─────────────────────────────────────────────┬──────────────┬──────────────┐
//	│       41 bits: Timestamp (milliseconds)     │  10 bits:    │  12 bits:    │
//	│        ~69 years from the custom epoch      │  Node ID     │  Counter     │
//	│                                             │  (0-1023)    │  (0-4095)    │
//	└─────────────────────────────────────────────┴──────────────┴──────────────┘
//
// The sign bit is never set, so IDs are positive int64 values once the clock
// is past the epoch.
//
// # Usage
//
//	gen, err := seqgen.New(42)
//	if err != nil {
//	    return err
//	}
//	id, err := gen.NextID()
//	if errors.Is(err, seqgen.ErrInvalidClock) {
//	    // the wall clock went backwards; retry policy is up to the caller
//	}
//	ts, node, counter := gen.DecomposeID(id)
//
// # Concurrency
//
// A SequenceGenerator is safe for concurrent use. NextID holds a single
// per-instance mutex while it reads the clock and updates the last timestamp
// and counter, so the pair always changes together. DecomposeID reads only
// immutable settings and takes no lock.
//
// When more than 2^CounterBits IDs are requested within one millisecond the
// generator spins, yielding the processor, until the clock reaches the next
// millisecond. The wait is bounded by the clock's resolution and cannot be
// cancelled.
package seqgen

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultEpoch is the custom epoch used by New, in milliseconds since the
// Unix epoch (2010-11-04 01:42:54.657 UTC).
const DefaultEpoch int64 = 1288834974657

// noTimestamp marks a generator that has not minted an ID yet. It lies below
// any reachable clock reading, including readings before the epoch.
const noTimestamp int64 = math.MinInt64

// Config holds the settings of a SequenceGenerator.
//
// Zero-valued Layout, Clock and Logger are replaced by their defaults in
// Validate. Epoch is used as given, including zero (the Unix epoch).
type Config struct {
	// NodeID identifies this instance. It must be unique across every
	// instance whose IDs can meet. Valid range: 0 to Layout.MaxNodeID().
	NodeID int64

	// Epoch is the custom epoch in milliseconds since the Unix epoch.
	Epoch int64

	// Layout is the bit split of the ID. Default: DefaultLayout.
	Layout Layout

	// Clock is the time source. Default: SystemClock.
	Clock Clock

	// Logger receives clock regression and counter exhaustion events.
	// Default: zap.NewNop().
	Logger *zap.Logger
}

// DefaultConfig returns a Config for nodeID with DefaultEpoch, DefaultLayout,
// the system wall clock and a no-op logger.
func DefaultConfig(nodeID int64) Config {
	return Config{
		NodeID: nodeID,
		Epoch:  DefaultEpoch,
		Layout: DefaultLayout,
		Clock:  SystemClock{},
		Logger: zap.NewNop(),
	}
}

// Validate fills defaults and checks the configuration.
//
// It returns an error wrapping ErrInvalidLayout for a bad layout and a
// *NodeIDError (wrapping ErrInvalidNodeID) for an out-of-range node ID.
func (c *Config) Validate() error {
	if c.Layout.IsZero() {
		c.Layout = DefaultLayout
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if maxNode := c.Layout.MaxNodeID(); c.NodeID < 0 || c.NodeID > maxNode {
		return &NodeIDError{NodeID: c.NodeID, Max: maxNode}
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}

// Stats is a snapshot of a generator's counters.
type Stats struct {
	Generated          int64         // IDs successfully minted
	ClockRegressions   int64         // NextID calls rejected with ErrInvalidClock
	CounterExhaustions int64         // times the counter wrapped and NextID waited for the next millisecond
	WaitTime           time.Duration // total time spent waiting on exhausted counters
}

// SequenceGenerator mints IDs for one node.
type SequenceGenerator struct {
	mu            sync.Mutex // guards lastTimestamp and counter
	lastTimestamp int64      // relative to epoch; noTimestamp until the first ID
	counter       int64

	nodeID     int64
	epoch      int64
	layout     Layout
	maxCounter int64
	clock      Clock
	logger     *zap.Logger

	generated          atomic.Int64
	clockRegressions   atomic.Int64
	counterExhaustions atomic.Int64
	waitNanos          atomic.Int64
}

// New creates a generator for nodeID using DefaultEpoch.
//
// Returns a *NodeIDError (errors.Is ErrInvalidNodeID) if nodeID is not in
// [0, MaxNodeID].
func New(nodeID int64) (*SequenceGenerator, error) {
	return NewWithConfig(DefaultConfig(nodeID))
}

// NewWithEpoch creates a generator for nodeID measuring time from epoch
// (milliseconds since the Unix epoch).
func NewWithEpoch(nodeID, epoch int64) (*SequenceGenerator, error) {
	cfg := DefaultConfig(nodeID)
	cfg.Epoch = epoch
	return NewWithConfig(cfg)
}

// NewWithConfig creates a generator from cfg. See Config.Validate for the
// errors it can return.
func NewWithConfig(cfg Config) (*SequenceGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SequenceGenerator{
		lastTimestamp: noTimestamp,
		nodeID:        cfg.NodeID,
		epoch:         cfg.Epoch,
		layout:        cfg.Layout,
		maxCounter:    cfg.Layout.MaxCounter(),
		clock:         cfg.Clock,
		logger:        cfg.Logger.With(zap.Int64("node_id", cfg.NodeID)),
	}, nil
}

// NextID mints a new ID.
//
// IDs from one generator never repeat, and their timestamp field never
// decreases; within a millisecond the counter strictly increases. If the
// clock reads earlier than the last minted timestamp, NextID returns a
// *ClockError (errors.Is ErrInvalidClock) and leaves the state untouched.
//
// ID composition:
//
//	ID = (timestamp << (NodeIDBits+CounterBits)) | (nodeID << CounterBits) | counter
func (g *SequenceGenerator) NextID() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := g.nextLocked()
	if err != nil {
		return 0, err
	}
	g.generated.Add(1)
	return ID(id), nil
}

// NextIDs mints n IDs while holding the lock once, which is cheaper than n
// calls to NextID. On a clock regression it returns the IDs minted so far
// along with the error. n <= 0 returns an empty slice.
func (g *SequenceGenerator) NextIDs(n int) ([]ID, error) {
	if n <= 0 {
		return []ID{}, nil
	}

	ids := make([]ID, 0, n)

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < n; i++ {
		id, err := g.nextLocked()
		if err != nil {
			g.generated.Add(int64(len(ids)))
			return ids, err
		}
		ids = append(ids, ID(id))
	}

	g.generated.Add(int64(n))
	return ids, nil
}

// nextLocked runs one step of the sequence state machine. g.mu must be held.
func (g *SequenceGenerator) nextLocked() (int64, error) {
	now := g.now()

	if now < g.lastTimestamp {
		g.clockRegressions.Add(1)
		err := &ClockError{Current: now, Last: g.lastTimestamp, NodeID: g.nodeID}
		g.logger.Error("invalid system clock detected",
			zap.Int64("current", now),
			zap.Int64("last", g.lastTimestamp),
			zap.Int64("drift_ms", err.Drift()))
		return 0, err
	}

	if now == g.lastTimestamp {
		// Wraps to 0 once the millisecond's counter space is used up.
		g.counter = (g.counter + 1) & g.maxCounter
		if g.counter == 0 {
			now = g.waitNextMillis()
		}
	} else {
		g.counter = 0
	}

	g.lastTimestamp = now

	return g.layout.Compose(now, g.nodeID, g.counter), nil
}

// waitNextMillis spins until the clock passes lastTimestamp and returns the
// new timestamp. g.mu must be held.
func (g *SequenceGenerator) waitNextMillis() int64 {
	g.counterExhaustions.Add(1)
	start := time.Now()

	for {
		now := g.now()
		if now > g.lastTimestamp {
			waited := time.Since(start)
			g.waitNanos.Add(int64(waited))
			g.logger.Debug("counter exhausted, waited for next millisecond",
				zap.Int64("timestamp", g.lastTimestamp),
				zap.Duration("waited", waited))
			return now
		}
		runtime.Gosched()
	}
}

// now returns the clock reading relative to the epoch.
func (g *SequenceGenerator) now() int64 {
	return g.clock.NowMillis() - g.epoch
}

// DecomposeID splits id into its fields using this generator's layout and
// epoch. timestamp is in milliseconds since the Unix epoch.
//
// The ID is not validated: an ID minted with another epoch or layout, or a
// made-up value, decodes to meaningless fields without error.
func (g *SequenceGenerator) DecomposeID(id ID) (timestamp, nodeID, counter int64) {
	timestamp, nodeID, counter = g.layout.Decompose(int64(id))
	timestamp += g.epoch
	return
}

// Time returns the instant encoded in id, per this generator's layout and epoch.
func (g *SequenceGenerator) Time(id ID) time.Time {
	ts, _, _ := g.DecomposeID(id)
	return time.UnixMilli(ts)
}

// NodeID returns the node ID. It never changes.
func (g *SequenceGenerator) NodeID() int64 {
	return g.nodeID
}

// Epoch returns the custom epoch in Unix milliseconds.
func (g *SequenceGenerator) Epoch() int64 {
	return g.epoch
}

// Layout returns the bit layout.
func (g *SequenceGenerator) Layout() Layout {
	return g.layout
}

// Stats returns a snapshot of the counters. It does not take the lock.
func (g *SequenceGenerator) Stats() Stats {
	return Stats{
		Generated:          g.generated.Load(),
		ClockRegressions:   g.clockRegressions.Load(),
		CounterExhaustions: g.counterExhaustions.Load(),
		WaitTime:           time.Duration(g.waitNanos.Load()),
	}
}

// String summarises the generator settings.
func (g *SequenceGenerator) String() string {
	return fmt.Sprintf("SequenceGenerator[layout=%s epoch=%d node=%d]", g.layout, g.epoch, g.nodeID)
}
