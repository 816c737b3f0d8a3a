package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

const stopwatchHelp = `Start the race clock once and record times as runners arrive.

  <bib>              record a finish
  a <bib>            record a delayed start (also: atraso <bib>)
  c <bib>            check in a runner (also: checkin <bib>)
  r                  show the ranking
  <enter>            show the race clock
  q                  end the session (also: sair)`

var stopwatchCmd = &cobra.Command{
	Use:     "stopwatch",
	Aliases: []string{"cronometro"},
	Short:   "Interactive timing session at the finish line",
	Long:    stopwatchHelp,
	Args:    cobra.NoArgs,
	RunE:    runStopwatch,
}

type stopwatchAction int

const (
	actTime stopwatchAction = iota
	actFinish
	actDelayedStart
	actCheckIn
	actRanking
	actHelp
	actQuit
)

type stopwatchCommand struct {
	action stopwatchAction
	bib    int
}

var errUnknownCommand = errors.New("comando desconhecido (? para ajuda)")

// parseStopwatchLine interprets one line typed by the monitor.
func parseStopwatchLine(line string) (stopwatchCommand, error) {
	fields := strings.Fields(strings.ToLower(line))
	switch len(fields) {
	case 0:
		return stopwatchCommand{action: actTime}, nil
	case 1:
		switch fields[0] {
		case "r", "ranking", "classificacao":
			return stopwatchCommand{action: actRanking}, nil
		case "q", "quit", "sair":
			return stopwatchCommand{action: actQuit}, nil
		case "?", "h", "help", "ajuda":
			return stopwatchCommand{action: actHelp}, nil
		}
		bib, err := timing.ParseBib(fields[0])
		if err != nil {
			return stopwatchCommand{}, err
		}
		return stopwatchCommand{action: actFinish, bib: bib}, nil
	case 2:
		var action stopwatchAction
		switch fields[0] {
		case "a", "atraso":
			action = actDelayedStart
		case "c", "checkin":
			action = actCheckIn
		case "f", "chegada":
			action = actFinish
		default:
			return stopwatchCommand{}, errUnknownCommand
		}
		bib, err := timing.ParseBib(fields[1])
		if err != nil {
			return stopwatchCommand{}, err
		}
		return stopwatchCommand{action: action, bib: bib}, nil
	}
	return stopwatchCommand{}, errUnknownCommand
}

// raceClock is the part of clock.Source a session uses.
type raceClock interface {
	Stamp() string
}

type sessionStats struct {
	saved    int
	rejected int
}

func runStopwatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := requireMonitor()
	st := openStore(ctx)
	defer st.Close()
	rc, cleanup := newReconciler(st, nil)
	defer cleanup()

	src := newClock()
	ref := src.Resolve(ctx)
	printClockAdvisory(ref)
	fmt.Printf("Cronômetro iniciado (%s, monitor %s). ? para ajuda.\n", ref.Source, monitor)

	stats, err := stopwatchSession(ctx, os.Stdin, os.Stdout, rc, src, monitor)
	if err != nil {
		exit(2, err)
	}

	session := int64((src.Elapsed() - ref.Offset).Seconds())
	fmt.Printf("Sessão encerrada após %s: %d tempos salvos, %d rejeitados\n",
		timecalc.FormatDuration(session), stats.saved, stats.rejected)
	return nil
}

// stopwatchSession reads commands from in until EOF, quit or ctx is done.
func stopwatchSession(ctx context.Context, in io.Reader, out io.Writer, rc *timing.Reconciler, clk raceClock, monitor string) (sessionStats, error) {
	var stats sessionStats
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return stats, nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return stats, err
				default:
					return stats, nil
				}
			}
			line = l
		}

		// The stamp is taken as soon as the line arrives.
		stamp := clk.Stamp()
		c, err := parseStopwatchLine(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		var o timing.Outcome
		switch c.action {
		case actTime:
			fmt.Fprintln(out, stamp)
			continue
		case actHelp:
			fmt.Fprintln(out, stopwatchHelp)
			continue
		case actQuit:
			return stats, nil
		case actRanking:
			ranking, err := rc.ComputeRanking(ctx)
			if err != nil {
				return stats, err
			}
			if err := export.WriteTable(out, ranking); err != nil {
				return stats, err
			}
			continue
		case actFinish:
			o = rc.RecordFinish(ctx, c.bib, monitor, stamp)
		case actDelayedStart:
			o = rc.RecordDelayedStart(ctx, c.bib, monitor, stamp)
		case actCheckIn:
			o = rc.CheckIn(ctx, c.bib, monitor)
		}

		fmt.Fprintln(out, o.Message())
		if o.OK() {
			stats.saved++
		} else {
			stats.rejected++
		}
	}
}
