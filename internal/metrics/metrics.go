// Package metrics holds the Prometheus collectors for a summarizer run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector so a run can use its own registry
// (tests create a fresh one each time; promauto on the default registry
// would panic on the second registration).
type Metrics struct {
	Registry *prometheus.Registry

	CompletionAttempts *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	RateLimitWait      prometheus.Histogram
	Results            *prometheus.CounterVec
	CompaniesTotal     prometheus.Gauge
	CompaniesDone      prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		CompletionAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_completion_attempts_total",
				Help: "Completion calls made, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		CompletionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summarizer_completion_duration_seconds",
				Help:    "Time to a successful completion, including retries and budget waits",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),

		RateLimitWait: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "summarizer_rate_limit_wait_seconds",
				Help:    "Time spent waiting for rate budget before an attempt",
				Buckets: []float64{0, 0.1, 1, 5, 15, 30, 60},
			},
		),

		Results: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_results_total",
				Help: "Companies processed, by final status",
			},
			[]string{"status"},
		),

		CompaniesTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "summarizer_companies_total",
			Help: "Companies in the current run",
		}),

		CompaniesDone: f.NewGauge(prometheus.GaugeOpts{
			Name: "summarizer_companies_done",
			Help: "Companies that reached a final status in the current run",
		}),
	}
}
