package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var finishAt string

var finishCmd = &cobra.Command{
	Use:     "finish <bib>...",
	Aliases: []string{"chegada"},
	Short:   "Record the finish time of one or more runners",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runFinish,
}

func init() {
	finishCmd.Flags().StringVar(&finishAt, "at", "", "Record this time (hh:mm:ss.cc) instead of the race clock")
}

func runFinish(cmd *cobra.Command, args []string) error {
	return runRecord(args, finishAt, func(ctx context.Context, rc *timing.Reconciler, bib int, monitor, elapsed string) timing.Outcome {
		return rc.RecordFinish(ctx, bib, monitor, elapsed)
	})
}
