// Package clock provides the race clock: a reference time of day taken once
// from the results API (or the local clock when that fails) plus monotonic
// elapsed time since it was taken.
package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timecalc"
)

// DefaultTimeout bounds the server time request.
const DefaultTimeout = 5 * time.Second

// Where a Reference came from.
const (
	SourceServer = "server"
	SourceLocal  = "local"
)

var errNoFetcher = errors.New("no time server configured")

// TimeFetcher returns the authoritative time of day as HH:MM:SS.
type TimeFetcher interface {
	ServerTime(ctx context.Context) (string, error)
}

// Reference is the resolved start of the race clock.
type Reference struct {
	// Offset is the time of day the clock started from.
	Offset time.Duration
	Source string
	// SyncErr is why the server could not be used, if it wasn't.
	SyncErr    error
	ResolvedAt time.Time
}

// Source is the race clock. It is safe for concurrent use.
type Source struct {
	fetcher TimeFetcher
	clock   clockwork.Clock
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.RWMutex
	ref      Reference
	resolved bool
}

// Option configures a Source.
type Option func(*Source)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Source) { s.clock = c }
}

// WithTimeout sets how long to wait for the time server.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for sync advisories.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// New creates a Source. fetcher may be nil, in which case the local clock is
// always used.
func New(fetcher TimeFetcher, opts ...Option) *Source {
	s := &Source{
		fetcher: fetcher,
		clock:   clockwork.NewRealClock(),
		timeout: DefaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve fixes the clock reference. It asks the time server first and falls
// back to the local time of day on any failure, so it always succeeds.
func (s *Source) Resolve(ctx context.Context) Reference {
	offset, err := s.fetch(ctx)
	now := s.clock.Now()

	ref := Reference{Offset: offset, Source: SourceServer, ResolvedAt: now}
	if err != nil {
		ref = Reference{
			Offset:     timecalc.OffsetOfDay(now),
			Source:     SourceLocal,
			SyncErr:    err,
			ResolvedAt: now,
		}
		s.logger.Warn().Err(err).Msg("server time unavailable, using local clock")
	} else {
		s.logger.Debug().Str("offset", timecalc.FormatElapsed(offset)).Msg("clock synchronised with server")
	}

	s.mu.Lock()
	s.ref = ref
	s.resolved = true
	s.mu.Unlock()
	return ref
}

func (s *Source) fetch(ctx context.Context) (time.Duration, error) {
	if s.fetcher == nil {
		return 0, errNoFetcher
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		hora string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		hora, err := s.fetcher.ServerTime(ctx)
		ch <- result{hora, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return 0, r.err
		}
		return timecalc.ParseTimeOfDay(r.hora)
	}
}

// Reference returns the current reference and whether Resolve has run.
func (s *Source) Reference() (Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref, s.resolved
}

// Elapsed is the reference offset plus the time passed since Resolve.
// It is zero before Resolve and never decreases.
func (s *Source) Elapsed() time.Duration {
	s.mu.RLock()
	ref, ok := s.ref, s.resolved
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	since := s.clock.Since(ref.ResolvedAt)
	if since < 0 {
		since = 0
	}
	return ref.Offset + since
}

// Stamp is Elapsed formatted as hh:mm:ss.cc.
func (s *Source) Stamp() string {
	return timecalc.FormatElapsed(s.Elapsed())
}
