package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry
// so tests and multiple servers in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	routeDecisions      *prometheus.CounterVec
	prospectsReturned   prometheus.Counter
	extractionFailures  prometheus.Counter
	completionErrors    *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadqual_route_decisions_total",
			Help: "Intent router decisions by route",
		}, []string{"route"}),
		prospectsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadqual_prospects_returned_total",
			Help: "Normalized prospects returned to callers",
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadqual_extraction_failures_total",
			Help: "Completions whose text held no parsable JSON object",
		}),
		completionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadqual_completion_errors_total",
			Help: "Remote completion failures by operation",
		}, []string{"operation"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadqual_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		m.routeDecisions,
		m.prospectsReturned,
		m.extractionFailures,
		m.completionErrors,
		m.httpRequestDuration,
	)
	return m
}

// RouteDecided counts one router decision.
func (m *Metrics) RouteDecided(route string) {
	m.routeDecisions.WithLabelValues(route).Inc()
}

// ProspectsReturned adds n returned prospects.
func (m *Metrics) ProspectsReturned(n int) {
	m.prospectsReturned.Add(float64(n))
}

// ExtractionFailed counts a completion with no usable JSON.
func (m *Metrics) ExtractionFailed() {
	m.extractionFailures.Inc()
}

// CompletionFailed counts a remote failure for operation.
func (m *Metrics) CompletionFailed(operation string) {
	m.completionErrors.WithLabelValues(operation).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
