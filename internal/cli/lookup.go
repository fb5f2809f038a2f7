package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sxyafiq/seqgen"
	"github.com/sxyafiq/seqgen/internal/ledger"
)

func newLookupCommand(opts *options) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "lookup ID",
		Short: "Find an ID in a ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := seqgen.ParseString(args[0])
			if err != nil {
				return err
			}

			l, err := ledger.Open(path, opts.logger)
			if err != nil {
				return err
			}
			defer l.Close()

			e, err := l.Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", e.ID)
			fmt.Fprintf(out, "Run:      %s\n", e.Run)
			fmt.Fprintf(out, "Time:     %s\n", e.Time.UTC().Format(time.RFC3339Nano))
			fmt.Fprintf(out, "Node ID:  %d\n", e.NodeID)
			fmt.Fprintf(out, "Counter:  %d\n", e.Counter)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "ledger", "", "Path to the SQLite ledger")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}
