package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/storage"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

func TestParseStopwatchLine(t *testing.T) {
	tests := []struct {
		line    string
		want    stopwatchCommand
		wantErr bool
	}{
		{"", stopwatchCommand{action: actTime}, false},
		{"   ", stopwatchCommand{action: actTime}, false},
		{"123", stopwatchCommand{action: actFinish, bib: 123}, false},
		{" 7 ", stopwatchCommand{action: actFinish, bib: 7}, false},
		{"f 8", stopwatchCommand{action: actFinish, bib: 8}, false},
		{"a 12", stopwatchCommand{action: actDelayedStart, bib: 12}, false},
		{"ATRASO 12", stopwatchCommand{action: actDelayedStart, bib: 12}, false},
		{"c 5", stopwatchCommand{action: actCheckIn, bib: 5}, false},
		{"r", stopwatchCommand{action: actRanking}, false},
		{"q", stopwatchCommand{action: actQuit}, false},
		{"sair", stopwatchCommand{action: actQuit}, false},
		{"?", stopwatchCommand{action: actHelp}, false},
		{"abc", stopwatchCommand{}, true},
		{"0", stopwatchCommand{}, true},
		{"-3", stopwatchCommand{}, true},
		{"x 12", stopwatchCommand{}, true},
		{"a twelve", stopwatchCommand{}, true},
		{"a 1 2", stopwatchCommand{}, true},
	}
	for _, tt := range tests {
		got, err := parseStopwatchLine(tt.line)
		if tt.wantErr {
			assert.Error(t, err, "line %q", tt.line)
			continue
		}
		require.NoError(t, err, "line %q", tt.line)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}

// stampSeq hands out stamps in order.
type stampSeq struct {
	stamps []string
	next   int
}

func (s *stampSeq) Stamp() string {
	st := s.stamps[s.next%len(s.stamps)]
	s.next++
	return st
}

func newSessionReconciler(t *testing.T) *timing.Reconciler {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "session.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return timing.New(st)
}

func TestStopwatchSession(t *testing.T) {
	rc := newSessionReconciler(t)
	clk := &stampSeq{stamps: []string{
		"00:01:00.00", // a 10
		"00:20:00.00", // 10
		"00:21:00.00", // 10 again
		"00:22:00.00", // abc
		"00:25:00.00", // c 11
		"00:26:00.00", // <enter>
		"00:27:00.00", // q
	}}
	in := strings.NewReader("a 10\n10\n10\nabc\nc 11\n\nq\n12\n")
	var out strings.Builder

	stats, err := stopwatchSession(context.Background(), in, &out, rc, clk, "chegada-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.saved)
	assert.Equal(t, 1, stats.rejected)

	text := out.String()
	assert.Contains(t, text, "00:26:00.00")
	assert.Contains(t, text, timing.ErrInvalidBib.Error())

	ranking, err := rc.ComputeRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, 10, ranking[0].Bib)
	require.NotNil(t, ranking[0].Finish)
	assert.Equal(t, "00:20:00.00", *ranking[0].Finish)
	require.NotNil(t, ranking[0].DelayedStart)
	assert.Equal(t, "00:01:00.00", *ranking[0].DelayedStart)
	assert.Equal(t, 11, ranking[1].Bib)
	assert.Nil(t, ranking[1].Finish)

	// Input after q is never read into the store.
	_, found, err := rc.RankingFor(context.Background(), 12)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStopwatchSessionRanking(t *testing.T) {
	rc := newSessionReconciler(t)
	clk := &stampSeq{stamps: []string{"00:30:00.00"}}
	in := strings.NewReader("42\nr\n")
	var out strings.Builder

	stats, err := stopwatchSession(context.Background(), in, &out, rc, clk, "chegada-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.saved)
	assert.Contains(t, out.String(), "POS")
	assert.Contains(t, out.String(), "42")
}

func TestStopwatchSessionCancelled(t *testing.T) {
	rc := newSessionReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	stats, err := stopwatchSession(ctx, strings.NewReader(""), &out, rc, &stampSeq{stamps: []string{"00:00:00.00"}}, "m")
	require.NoError(t, err)
	assert.Zero(t, stats.saved)
}
