package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

type recordFunc func(ctx context.Context, rc *timing.Reconciler, bib int, monitor, elapsed string) timing.Outcome

// runRecord stamps every bib with one clock reading (or the --at value) and
// records it. The worst outcome decides the exit code.
func runRecord(args []string, at string, record recordFunc) error {
	ctx := context.Background()
	monitor := requireMonitor()

	bibs := make([]int, 0, len(args))
	for _, a := range args {
		bib, err := timing.ParseBib(a)
		if err != nil {
			exit(1, fmt.Errorf("número do corredor inválido: %w", err))
		}
		bibs = append(bibs, bib)
	}

	elapsed := at
	if elapsed == "" {
		src := newClock()
		printClockAdvisory(src.Resolve(ctx))
		elapsed = src.Stamp()
	} else if _, err := timecalc.ParseElapsed(elapsed); err != nil {
		exit(1, err)
	}

	st := openStore(ctx)
	defer st.Close()
	rc, cleanup := newReconciler(st, nil)
	defer cleanup()

	code := 0
	for _, bib := range bibs {
		o := record(ctx, rc, bib, monitor, elapsed)
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
