// Package metrics exports SequenceGenerator counters to Prometheus.
//
//	gen, _ := seqgen.New(42)
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector(gen, gen.NodeID()))
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sxyafiq/seqgen"
)

const namespace = "seqgen"

// StatsSource is anything that can report generator stats.
type StatsSource interface {
	Stats() seqgen.Stats
}

// Collector reads a StatsSource on every scrape. Counters are labelled with
// the node ID so several generators can share a registry.
type Collector struct {
	src StatsSource

	generated          *prometheus.Desc
	clockRegressions   *prometheus.Desc
	counterExhaustions *prometheus.Desc
	waitSeconds        *prometheus.Desc
}

// NewCollector returns a Collector for src, labelled node=<nodeID>.
func NewCollector(src StatsSource, nodeID int64) *Collector {
	labels := prometheus.Labels{"node": strconv.FormatInt(nodeID, 10)}

	return &Collector{
		src: src,
		generated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "ids_generated_total"),
			"Total number of IDs generated.",
			nil, labels,
		),
		clockRegressions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "clock_regressions_total"),
			"Number of ID requests rejected because the clock moved backwards.",
			nil, labels,
		),
		counterExhaustions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "counter_exhaustions_total"),
			"Number of times the per-millisecond counter ran out and generation waited for the next millisecond.",
			nil, labels,
		),
		waitSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "wait_seconds_total"),
			"Total time spent waiting for the next millisecond after counter exhaustion.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.generated
	ch <- c.clockRegressions
	ch <- c.counterExhaustions
	ch <- c.waitSeconds
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.generated, prometheus.CounterValue, float64(s.Generated))
	ch <- prometheus.MustNewConstMetric(c.clockRegressions, prometheus.CounterValue, float64(s.ClockRegressions))
	ch <- prometheus.MustNewConstMetric(c.counterExhaustions, prometheus.CounterValue, float64(s.CounterExhaustions))
	ch <- prometheus.MustNewConstMetric(c.waitSeconds, prometheus.CounterValue, s.WaitTime.Seconds())
}
