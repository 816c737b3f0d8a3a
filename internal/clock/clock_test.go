package clock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/clock"
)

type fetcherFunc func(ctx context.Context) (string, error)

func (f fetcherFunc) ServerTime(ctx context.Context) (string, error) { return f(ctx) }

func newSource(f clock.TimeFetcher, fc clockwork.Clock, opts ...clock.Option) *clock.Source {
	opts = append([]clock.Option{clock.WithClock(fc), clock.WithLogger(zerolog.Nop())}, opts...)
	return clock.New(f, opts...)
}

func TestResolveUsesServerTime(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC))
	src := newSource(fetcherFunc(func(context.Context) (string, error) { return "08:00:00", nil }), fc)

	ref := src.Resolve(context.Background())
	assert.Equal(t, clock.SourceServer, ref.Source)
	assert.NoError(t, ref.SyncErr)
	assert.Equal(t, 8*time.Hour, ref.Offset)

	fc.Advance(5*time.Minute + 12*time.Second + 345*time.Millisecond)
	assert.Equal(t, "08:05:12.34", src.Stamp())
}

func TestResolveFallsBackToLocal(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 15, 500_000_000, time.Local)
	tests := []struct {
		name    string
		fetcher clock.TimeFetcher
	}{
		{"nil fetcher", nil},
		{"network error", fetcherFunc(func(context.Context) (string, error) { return "", errors.New("connection refused") })},
		{"malformed time", fetcherFunc(func(context.Context) (string, error) { return "25:99", nil })},
		{"out of range", fetcherFunc(func(context.Context) (string, error) { return "24:00:00", nil })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := clockwork.NewFakeClockAt(at)
			src := newSource(tt.fetcher, fc)

			ref := src.Resolve(context.Background())
			assert.Equal(t, clock.SourceLocal, ref.Source)
			assert.Error(t, ref.SyncErr)
			assert.Equal(t, "09:30:15.50", src.Stamp())
		})
	}
}

func TestResolveTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	slow := fetcherFunc(func(ctx context.Context) (string, error) {
		<-block
		return "08:00:00", nil
	})
	src := newSource(slow, clockwork.NewRealClock(), clock.WithTimeout(20*time.Millisecond))

	start := time.Now()
	ref := src.Resolve(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, clock.SourceLocal, ref.Source)
	assert.ErrorIs(t, ref.SyncErr, context.DeadlineExceeded)
}

func TestElapsedBeforeResolve(t *testing.T) {
	src := newSource(nil, clockwork.NewFakeClock())
	assert.Equal(t, time.Duration(0), src.Elapsed())
	assert.Equal(t, "00:00:00.00", src.Stamp())
	_, ok := src.Reference()
	assert.False(t, ok)
}

func TestElapsedIsMonotonic(t *testing.T) {
	fc := clockwork.NewFakeClock()
	src := newSource(fetcherFunc(func(context.Context) (string, error) { return "10:00:00", nil }), fc)
	src.Resolve(context.Background())

	prev := src.Elapsed()
	for i := 0; i < 50; i++ {
		fc.Advance(7 * time.Millisecond)
		cur := src.Elapsed()
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	ref, ok := src.Reference()
	require.True(t, ok)
	assert.Equal(t, ref.Offset+350*time.Millisecond, prev)
}
