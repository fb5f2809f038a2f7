// Command seqgen generates and inspects time-ordered 64-bit IDs.
//
// Usage:
//
//	seqgen generate --node N [--count C] [--epoch E] [--monotonic] [--ledger PATH] [--json]
//	seqgen decompose ID... [--epoch E]
//	seqgen lookup ID --ledger PATH
//	seqgen bench --node N [--duration D] [--workers W]
//	seqgen version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sxyafiq/seqgen/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
