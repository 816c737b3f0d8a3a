package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/clock"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/events"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/raceapi"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/storage"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

// exit prints err and terminates: 1 for usage and rejected input, 2 for
// storage and I/O failures.
func exit(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

func openStore(ctx context.Context) *storage.Store {
	st, err := storage.Open(ctx, storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		exit(2, err)
	}
	return st
}

func newAPI() *raceapi.Client {
	return raceapi.New(cfg.API.BaseURL,
		raceapi.WithToken(cfg.API.Token),
		raceapi.WithTimeout(cfg.API.Timeout),
	)
}

// requireAPI exits when no results API is configured.
func requireAPI() *raceapi.Client {
	if cfg.API.BaseURL == "" {
		exit(1, errors.New("results API not configured: set api.base_url in the config file or CRONOMETRO_API_URL"))
	}
	return newAPI()
}

// newClock returns an unresolved race clock backed by the results API when
// one is configured.
func newClock() *clock.Source {
	var fetcher clock.TimeFetcher
	if cfg.API.BaseURL != "" {
		fetcher = newAPI()
	}
	return clock.New(fetcher, clock.WithTimeout(cfg.Clock.SyncTimeout))
}

// printClockAdvisory tells the monitor when the local clock is in use.
func printClockAdvisory(ref clock.Reference) {
	if ref.Source == clock.SourceLocal {
		fmt.Fprintf(os.Stderr, "Usando hora local (%v)\n", ref.SyncErr)
	}
}

// newReconciler wires the store to the NATS feed (when configured) and any
// extra notifiers. The returned func releases the feed connection.
func newReconciler(st *storage.Store, extra events.Fanout, opts ...timing.Option) (*timing.Reconciler, func()) {
	fanout := append(events.Fanout(nil), extra...)
	cleanup := func() {}

	if cfg.NATS.URL != "" {
		ncfg := events.DefaultConfig()
		ncfg.URL = cfg.NATS.URL
		ncfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		ncfg.Station = cfg.Monitor
		pub, err := events.Connect(ncfg)
		if err != nil {
			log.Warn().Err(err).Msg("timing feed disabled")
		} else {
			fanout = append(fanout, pub)
			cleanup = func() { _ = pub.Close() }
		}
	}

	var notifier events.Notifier = events.Nop{}
	if len(fanout) > 0 {
		notifier = fanout
	}
	opts = append(opts, timing.WithNotifier(notifier))
	return timing.New(st, opts...), cleanup
}

// requireMonitor exits when no monitor name is configured.
func requireMonitor() string {
	if cfg.Monitor == "" {
		exit(1, errors.New("monitor name required: use --monitor or set monitor in the config file"))
	}
	return cfg.Monitor
}

// outcomeCode maps a rejected outcome to an exit code.
func outcomeCode(o timing.Outcome) int {
	if o.Kind == timing.StorageFailure {
		return 2
	}
	return 1
}
