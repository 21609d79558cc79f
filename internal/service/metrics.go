package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the search pipeline collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  prometheus.Histogram
	degraded *prometheus.CounterVec
}

// NewMetrics registers the search collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quicksearch_search_requests_total",
			Help: "Quick searches by outcome and the stage they ended in.",
		}, []string{"outcome", "stage"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quicksearch_search_duration_seconds",
			Help:    "Quick search latency by outcome.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "quicksearch_search_results",
			Help:    "Number of items returned by successful quick searches.",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
		degraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quicksearch_render_degraded_total",
			Help: "Result items returned with a placeholder price or without an image.",
		}, []string{"kind"}),
	}
}
