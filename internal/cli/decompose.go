package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sxyafiq/seqgen"
)

func newDecomposeCommand() *cobra.Command {
	var (
		epoch   int64
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:     "decompose ID...",
		Aliases: []string{"parse"},
		Short:   "Split IDs into timestamp, node ID and counter",
		Long: `Split IDs into timestamp, node ID and counter.

IDs carry no record of the epoch they were minted with; pass the same
--epoch the generator used or the timestamps will be off.`,
		Example: `  seqgen decompose 1541815603606036480
  seqgen decompose --epoch 0 4197515264`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Node 0 is arbitrary; decomposing depends only on layout and epoch.
			gen, err := seqgen.NewWithEpoch(0, epoch)
			if err != nil {
				return err
			}

			infos := make([]idInfo, 0, len(args))
			for _, arg := range args {
				id, err := seqgen.ParseString(arg)
				if err != nil {
					return err
				}
				infos = append(infos, describe(gen, id))
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%s\ttime=%s\tnode=%d\tcounter=%d\n",
					info.ID, info.Timestamp.Format(time.RFC3339Nano), info.NodeID, info.Counter)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&epoch, "epoch", seqgen.DefaultEpoch, "Epoch the IDs were generated with, in milliseconds since the Unix epoch")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
