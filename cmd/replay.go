package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/replay"
)

func init() {
	replayCmd := &cobra.Command{
		Use:   "replay <session> <request-id> <target-url>",
		Short: "Re-send a captured request to another URL",
		Long: `Re-send a captured request to another URL. Method, headers and body are
taken from the capture; the request is sent by the pingforge server.

Example:
  pingforge replay a1b2c3d4 9f86d081 https://staging.example.com/webhooks`,
		Args: cobra.ExactArgs(3),
		Run:  runReplay,
	}

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	res, err := replay.NewDispatcher(newBackend(), logger).Dispatch(ctx, args[0], args[1], args[2])
	var replayErr *replay.Error
	if errors.As(err, &replayErr) {
		format.PrintError(replayErr.Error())
		os.Exit(1)
	}
	exitOnError("Replay failed", err)
	format.PrintReplayResult(os.Stdout, res)
}
