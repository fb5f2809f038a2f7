package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxyafiq/seqgen"
)

type fixedStats seqgen.Stats

func (f fixedStats) Stats() seqgen.Stats { return seqgen.Stats(f) }

func TestCollector_Output(t *testing.T) {
	c := NewCollector(fixedStats{
		Generated:          1500,
		ClockRegressions:   2,
		CounterExhaustions: 3,
		WaitTime:           1500 * time.Millisecond,
	}, 7)

	expected := `
# HELP seqgen_ids_generated_total Total number of IDs generated.
# TYPE seqgen_ids_generated_total counter
seqgen_ids_generated_total{node="7"} 1500
# HELP seqgen_clock_regressions_total Number of ID requests rejected because the clock moved backwards.
# TYPE seqgen_clock_regressions_total counter
seqgen_clock_regressions_total{node="7"} 2
# HELP seqgen_counter_exhaustions_total Number of times the per-millisecond counter ran out and generation waited for the next millisecond.
# TYPE seqgen_counter_exhaustions_total counter
seqgen_counter_exhaustions_total{node="7"} 3
# HELP seqgen_wait_seconds_total Total time spent waiting for the next millisecond after counter exhaustion.
# TYPE seqgen_wait_seconds_total counter
seqgen_wait_seconds_total{node="7"} 1.5
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"seqgen_ids_generated_total",
		"seqgen_clock_regressions_total",
		"seqgen_counter_exhaustions_total",
		"seqgen_wait_seconds_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, testutil.CollectAndCount(c))
}

func TestCollector_LiveGenerator(t *testing.T) {
	gen, err := seqgen.New(12)
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(gen, gen.NodeID())))

	_, err = gen.NextIDs(250)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var generated float64
	for _, mf := range families {
		if mf.GetName() == "seqgen_ids_generated_total" {
			require.Len(t, mf.GetMetric(), 1)
			generated = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(250), generated)
}

func TestCollector_TwoNodesShareRegistry(t *testing.T) {
	a, err := seqgen.New(1)
	require.NoError(t, err)
	b, err := seqgen.New(2)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(a, a.NodeID())))
	require.NoError(t, reg.Register(NewCollector(b, b.NodeID())))

	count, err := testutil.GatherAndCount(reg, "seqgen_ids_generated_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
