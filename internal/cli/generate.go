package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sxyafiq/seqgen"
	"github.com/sxyafiq/seqgen/internal/ledger"
)

type generateFlags struct {
	node      int64
	epoch     int64
	count     int
	monotonic bool
	ledger    string
	json      bool
}

// idInfo is the JSON form of one generated or decomposed ID.
type idInfo struct {
	ID        seqgen.ID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    int64     `json:"node_id"`
	Counter   int64     `json:"counter"`
}

type generateOutput struct {
	Run      string   `json:"run,omitempty"`
	Count    int      `json:"count"`
	NodeID   int64    `json:"node_id"`
	Epoch    int64    `json:"epoch"`
	Layout   string   `json:"layout"`
	Duration string   `json:"duration"`
	IDs      []idInfo `json:"ids"`
}

func newGenerateCommand(opts *options) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate IDs",
		Example: `  seqgen generate --node 42
  seqgen generate --node 42 --count 1000 --ledger ids.db
  seqgen generate --node 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, f)
		},
	}

	cmd.Flags().Int64Var(&f.node, "node", 0, "Node ID (0-1023)")
	cmd.Flags().Int64Var(&f.epoch, "epoch", seqgen.DefaultEpoch, "Custom epoch in milliseconds since the Unix epoch")
	cmd.Flags().IntVar(&f.count, "count", 1, "Number of IDs to generate")
	cmd.Flags().BoolVar(&f.monotonic, "monotonic", false, "Read time from the monotonic clock instead of the wall clock")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "Record generated IDs in this SQLite ledger")
	cmd.Flags().BoolVar(&f.json, "json", false, "Output as JSON with decoded fields")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *options, f *generateFlags) error {
	if f.count < 1 {
		return fmt.Errorf("invalid --count %d: must be at least 1", f.count)
	}

	cfg := seqgen.DefaultConfig(f.node)
	cfg.Epoch = f.epoch
	cfg.Logger = opts.logger
	if f.monotonic {
		cfg.Clock = seqgen.NewMonotonicClock()
	}

	gen, err := seqgen.NewWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	start := time.Now()
	ids, err := gen.NextIDs(f.count)
	if err != nil {
		return fmt.Errorf("generate ids (%d of %d done): %w", len(ids), f.count, err)
	}
	elapsed := time.Since(start)

	var run uuid.UUID
	if f.ledger != "" {
		run, err = recordRun(cmd, opts.logger, f.ledger, gen, ids)
		if err != nil {
			return err
		}
	}

	opts.logger.Info("ids generated",
		zap.Int64("node_id", f.node),
		zap.Int("count", len(ids)),
		zap.Duration("elapsed", elapsed),
	)

	out := cmd.OutOrStdout()
	if !f.json {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	result := generateOutput{
		Count:    len(ids),
		NodeID:   gen.NodeID(),
		Epoch:    gen.Epoch(),
		Layout:   gen.Layout().String(),
		Duration: elapsed.String(),
		IDs:      make([]idInfo, len(ids)),
	}
	if run != uuid.Nil {
		result.Run = run.String()
	}
	for i, id := range ids {
		result.IDs[i] = describe(gen, id)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func recordRun(cmd *cobra.Command, logger *zap.Logger, path string, gen *seqgen.SequenceGenerator, ids []seqgen.ID) (uuid.UUID, error) {
	l, err := ledger.Open(path, logger)
	if err != nil {
		return uuid.Nil, err
	}
	defer l.Close()

	run := uuid.New()
	if err := l.Record(cmd.Context(), run, gen, ids); err != nil {
		return uuid.Nil, err
	}

	logger.Info("ids recorded", zap.String("ledger", path), zap.Stringer("run", run))
	return run, nil
}

func describe(gen *seqgen.SequenceGenerator, id seqgen.ID) idInfo {
	ts, node, counter := gen.DecomposeID(id)
	return idInfo{
		ID:        id,
		Timestamp: time.UnixMilli(ts).UTC(),
		NodeID:    node,
		Counter:   counter,
	}
}
