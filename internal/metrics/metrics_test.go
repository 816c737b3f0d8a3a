package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/metrics"
)

func TestObserveOutcome(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	c.ObserveOutcome("finish", "created")
	c.ObserveOutcome("finish", "created")
	c.ObserveOutcome("finish", "already_recorded")

	want := `
# HELP cronometro_timing_outcomes_total Timing operations by operation and outcome.
# TYPE cronometro_timing_outcomes_total counter
cronometro_timing_outcomes_total{op="finish",outcome="already_recorded"} 1
cronometro_timing_outcomes_total{op="finish",outcome="created"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "cronometro_timing_outcomes_total"))
}

func TestObserveStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	c.ObserveStore("insert", 3*time.Millisecond)
	c.ObserveStore("list", time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "cronometro_store_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)
	_, err = metrics.New(reg)
	assert.Error(t, err)
}
