// Package metrics exposes timing activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts reconciler outcomes and times store calls.
type Collector struct {
	outcomes      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// New creates a Collector and registers it on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cronometro",
			Name:      "timing_outcomes_total",
			Help:      "Timing operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cronometro",
			Name:      "store_duration_seconds",
			Help:      "Latency of runner store calls.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
	}
	for _, col := range []prometheus.Collector{c.outcomes, c.storeDuration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveOutcome(op, outcome string) {
	c.outcomes.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) ObserveStore(op string, d time.Duration) {
	c.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}
