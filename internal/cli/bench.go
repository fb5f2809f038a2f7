package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sxyafiq/seqgen"
	"github.com/sxyafiq/seqgen/metrics"
)

func newBenchCommand(opts *options) *cobra.Command {
	var (
		node     int64
		duration time.Duration
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure generation throughput under concurrent load",
		Example: `  seqgen bench --node 1
  seqgen bench --node 1 --duration 5s --workers 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 1 {
				return fmt.Errorf("invalid --workers %d: must be at least 1", workers)
			}
			if duration <= 0 {
				return fmt.Errorf("invalid --duration %s: must be positive", duration)
			}

			cfg := seqgen.DefaultConfig(node)
			cfg.Logger = opts.logger
			gen, err := seqgen.NewWithConfig(cfg)
			if err != nil {
				return fmt.Errorf("create generator: %w", err)
			}

			reg := prometheus.NewRegistry()
			if err := reg.Register(metrics.NewCollector(gen, gen.NodeID())); err != nil {
				return fmt.Errorf("register collector: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running benchmark (node: %d, workers: %d, duration: %v)\n\n", node, workers, duration)

			elapsed, err := runBench(cmd.Context(), gen, workers, duration)
			if err != nil {
				return err
			}

			stats := gen.Stats()
			fmt.Fprintf(out, "Generated:  %d IDs\n", stats.Generated)
			fmt.Fprintf(out, "Elapsed:    %v\n", elapsed.Round(time.Millisecond))
			fmt.Fprintf(out, "Rate:       %.0f IDs/sec\n", float64(stats.Generated)/elapsed.Seconds())
			fmt.Fprintf(out, "\nMetrics:\n")

			families, err := reg.Gather()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
			for _, mf := range families {
				for _, m := range mf.GetMetric() {
					fmt.Fprintf(out, "  %-36s %g\n", mf.GetName(), m.GetCounter().GetValue())
				}
			}

			opts.logger.Info("benchmark finished",
				zap.Int64("generated", stats.Generated),
				zap.Int64("clock_regressions", stats.ClockRegressions),
				zap.Duration("elapsed", elapsed),
			)
			return nil
		},
	}

	cmd.Flags().Int64Var(&node, "node", 0, "Node ID (0-1023)")
	cmd.Flags().DurationVar(&duration, "duration", 3*time.Second, "Benchmark duration")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Number of concurrent goroutines calling NextID")

	return cmd
}

// runBench hammers gen from workers goroutines until d elapses or ctx ends.
// Clock regressions are counted by the generator and do not stop the run.
func runBench(ctx context.Context, gen *seqgen.SequenceGenerator, workers int, d time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				if _, err := gen.NextID(); err != nil && !errors.Is(err, seqgen.ErrInvalidClock) {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
					return
				}
			}
		}()
	}
	wg.Wait()

	return time.Since(start), firstErr
}
