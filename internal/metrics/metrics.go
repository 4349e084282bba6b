package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's Prometheus collectors. A nil *Registry is
// valid and records nothing.
type Registry struct {
	FetchRequests    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	AnalysisRuns     *prometheus.CounterVec
	Notifications    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Registry backed by its own prometheus.Registry.
func New() *Registry {
	r := &Registry{
		FetchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gem_fetch_requests_total",
				Help: "Price and search requests to the market data provider",
			},
			[]string{"source", "status"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gem_analysis_duration_seconds",
				Help:    "Wall time of one full analysis including data fetch",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		AnalysisRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gem_analysis_runs_total",
				Help: "Completed analyses by result status",
			},
			[]string{"status"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gem_notifications_total",
				Help: "Outgoing chat notifications by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}
	r.registry.MustRegister(r.FetchRequests, r.AnalysisDuration, r.AnalysisRuns, r.Notifications)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) ObserveFetch(source, status string) {
	if r == nil {
		return
	}
	r.FetchRequests.WithLabelValues(source, status).Inc()
}

func (r *Registry) ObserveAnalysis(status string, took time.Duration) {
	if r == nil {
		return
	}
	r.AnalysisRuns.WithLabelValues(status).Inc()
	r.AnalysisDuration.Observe(took.Seconds())
}

func (r *Registry) ObserveNotification(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Notifications.WithLabelValues(result).Inc()
}
