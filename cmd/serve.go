package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/board"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/events"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/metrics"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the results board (ranking, clock, timing writes and live feed)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Board.Addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.New(reg)
	if err != nil {
		exit(2, fmt.Errorf("registering metrics: %w", err))
	}

	st := openStore(ctx)
	defer st.Close()

	hub := board.NewHub(board.DefaultHubConfig())
	rc, cleanup := newReconciler(st, events.Fanout{hub}, timing.WithMetrics(collector))
	defer cleanup()

	src := newClock()
	ref := src.Resolve(ctx)
	printClockAdvisory(ref)

	opts := []board.Option{board.WithGatherer(reg)}
	if cfg.Monitor != "" {
		opts = append(opts, board.WithMonitor(cfg.Monitor))
	}
	srv := board.New(rc, src, hub, opts...)

	if err := srv.Run(ctx, addr); err != nil {
		log.Error().Err(err).Msg("results board failed")
		exit(2, err)
	}
	return nil
}
