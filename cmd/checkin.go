package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin <bib>...",
	Short: "Register runners before they are timed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheckin,
}

func runCheckin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	monitor := requireMonitor()

	st := openStore(ctx)
	defer st.Close()
	rc, cleanup := newReconciler(st, nil)
	defer cleanup()

	code := 0
	for _, a := range args {
		bib, err := timing.ParseBib(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Número do corredor inválido: %v\n", err)
			code = max(code, 1)
			continue
		}
		o := rc.CheckIn(ctx, bib, monitor)
		if o.OK() {
			fmt.Println(o.Message())
			continue
		}
		fmt.Fprintln(os.Stderr, o.Message())
		code = max(code, outcomeCode(o))
	}
	if code != 0 {
		cleanup()
		st.Close()
		os.Exit(code)
	}
	return nil
}
