package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
)

var raceStartAt string

var raceCmd = &cobra.Command{
	Use:     "race",
	Aliases: []string{"corrida"},
	Short:   "Announce the general start or the end of the race to the results API",
}

var raceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Post the general start time (now, or --at HH:MM:SS)",
	Args:  cobra.NoArgs,
	RunE:  runRaceStart,
}

var raceEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Close the classification",
	Args:  cobra.NoArgs,
	RunE:  runRaceEnd,
}

func init() {
	raceStartCmd.Flags().StringVar(&raceStartAt, "at", "", "General start time of day as HH:MM:SS")

	raceCmd.AddCommand(raceStartCmd)
	raceCmd.AddCommand(raceEndCmd)
}

func runRaceStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	monitor := requireMonitor()
	api := requireAPI()

	hora := raceStartAt
	if hora != "" {
		if _, err := timecalc.ParseTimeOfDay(hora); err != nil {
			exit(1, err)
		}
	} else {
		src := newClock()
		ref := src.Resolve(ctx)
		printClockAdvisory(ref)
		hora = timecalc.FormatTimeOfDay(src.Elapsed())
	}

	if err := api.PostGeneralStart(ctx, hora, monitor); err != nil {
		exit(2, err)
	}
	fmt.Printf("Largada geral registrada: %s\n", hora)
	return nil
}

func runRaceEnd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	monitor := requireMonitor()
	api := requireAPI()

	if err := api.EndRace(ctx, monitor); err != nil {
		exit(2, err)
	}
	fmt.Println("Corrida encerrada.")
	return nil
}
