package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/clock"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
)

var clockCmd = &cobra.Command{
	Use:     "clock",
	Aliases: []string{"hora"},
	Short:   "Resolve the race clock and show where it came from",
	Args:    cobra.NoArgs,
	RunE:    runClock,
}

func runClock(cmd *cobra.Command, args []string) error {
	src := newClock()
	ref := src.Resolve(context.Background())

	fmt.Printf("Reference: %s\n", timecalc.FormatTimeOfDay(ref.Offset))
	fmt.Printf("Source: %s\n", ref.Source)
	fmt.Printf("Stamp: %s\n", src.Stamp())
	if ref.Source == clock.SourceLocal {
		fmt.Printf("Usando hora local (%v)\n", ref.SyncErr)
	}
	return nil
}
