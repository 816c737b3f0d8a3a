package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show station settings and how many runners are recorded",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

type stateCounts struct {
	total     int
	checkedIn int
	partial   int
	complete  int
	finished  int
}

func countStates(recs []model.RunnerRecord) stateCounts {
	var c stateCounts
	for _, r := range recs {
		c.total++
		switch r.State() {
		case model.StateCheckedIn:
			c.checkedIn++
		case model.StatePartial:
			c.partial++
		case model.StateComplete:
			c.complete++
		}
		if r.Finish != nil {
			c.finished++
		}
	}
	return c
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st := openStore(ctx)
	defer st.Close()

	recs, err := st.List(ctx)
	if err != nil {
		exit(2, err)
	}
	c := countStates(recs)

	monitor := cfg.Monitor
	if monitor == "" {
		monitor = "(not set)"
	}
	api := cfg.API.BaseURL
	if api == "" {
		api = "(offline, local clock)"
	}
	feed := "(disabled)"
	if cfg.NATS.URL != "" {
		feed = cfg.NATS.URL + " " + cfg.NATS.SubjectPrefix + ".*"
	}

	fmt.Printf("Monitor: %s\n", monitor)
	fmt.Printf("Storage: %s\n", st.Driver())
	fmt.Printf("Results API: %s\n", api)
	fmt.Printf("Timing feed: %s\n", feed)
	if c.total == 0 {
		fmt.Println("No runners recorded.")
		return nil
	}
	fmt.Printf("Runners: %d (%d finished)\n", c.total, c.finished)
	fmt.Printf("  Checked in only: %d\n", c.checkedIn)
	fmt.Printf("  One time recorded: %d\n", c.partial)
	fmt.Printf("  Both times recorded: %d\n", c.complete)
	return nil
}
