package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var delayedStartAt string

var delayedStartCmd = &cobra.Command{
	Use:     "delayed-start <bib>...",
	Aliases: []string{"atraso"},
	Short:   "Record a late start for one or more runners",
	Long: `Record the time a runner crossed the start line after the general start.
A runner that already has a finish time cannot get a delayed start.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelayedStart,
}

func init() {
	delayedStartCmd.Flags().StringVar(&delayedStartAt, "at", "", "Record this time (hh:mm:ss.cc) instead of the race clock")
}

func runDelayedStart(cmd *cobra.Command, args []string) error {
	return runRecord(args, delayedStartAt, func(ctx context.Context, rc *timing.Reconciler, bib int, monitor, elapsed string) timing.Outcome {
		return rc.RecordDelayedStart(ctx, bib, monitor, elapsed)
	})
}
