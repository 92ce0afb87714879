package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for snippet execution.
type Metrics struct {
	Executions    *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	SanitizerHits *prometheus.CounterVec
}

// NewMetrics registers the execution collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codecoach_executions_total",
				Help: "Total number of snippet executions by outcome",
			},
			[]string{"backend", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codecoach_execution_duration_seconds",
				Help:    "Snippet execution wall-clock time in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"backend"},
		),
		SanitizerHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codecoach_sanitizer_hits_total",
				Help: "Number of denylisted patterns neutralized, by rule",
			},
			[]string{"rule"},
		),
	}
}
