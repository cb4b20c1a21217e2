package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	generationAttempts *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	continuations      *prometheus.CounterVec
	unavailable        prometheus.Counter
	insights           *prometheus.CounterVec
	documents          *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_intel_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "client_intel_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		generationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_intel_generation_attempts_total",
			Help: "Generation attempts by model family and outcome.",
		}, []string{"family", "outcome"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "client_intel_generation_duration_seconds",
			Help:    "Latency of single generation attempts.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 90, 120},
		}, []string{"family"}),
		continuations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_intel_generation_continuations_total",
			Help: "Continuation requests issued for truncated responses.",
		}, []string{"outcome"}),
		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "client_intel_generation_unavailable_total",
			Help: "Generations that returned no text after all retries.",
		}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_intel_insights_total",
			Help: "Insights produced by priority.",
		}, []string{"priority"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "client_intel_documents_uploaded_total",
			Help: "Documents added to a knowledge base by type.",
		}, []string{"type"}),
	}
	registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.generationAttempts, m.generationDuration, m.continuations, m.unavailable,
		m.insights, m.documents,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveAttempt(family, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(family, outcome).Inc()
	m.generationDuration.WithLabelValues(family).Observe(d.Seconds())
}

func (m *Metrics) ObserveContinuation(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.continuations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncUnavailable() {
	if m == nil {
		return
	}
	m.unavailable.Inc()
}

func (m *Metrics) IncInsight(priority string) {
	if m == nil {
		return
	}
	m.insights.WithLabelValues(priority).Inc()
}

func (m *Metrics) IncDocument(docType string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(docType).Inc()
}
