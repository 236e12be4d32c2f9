package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService exposes Prometheus counters for the engine. All observe
// methods are nil-safe so instrumentation stays optional in tests.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	transitionsTotal      *prometheus.CounterVec
	commissionEventsTotal *prometheus.CounterVec
	ledgerEntriesTotal    *prometheus.CounterVec
}

// NewMetricsService constructs a MetricsService with its own registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_http_requests_total",
			Help: "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "placement_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_status_transitions_total",
			Help: "Status transition attempts by entity and outcome.",
		}, []string{"entity", "allowed"}),
		commissionEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_commission_events_total",
			Help: "Commission lifecycle events by kind.",
		}, []string{"event"}),
		ledgerEntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_ledger_entries_total",
			Help: "Appended ledger entries by type.",
		}, []string{"type"}),
	}

	registry.MustRegister(m.httpRequestsTotal, m.httpRequestDuration, m.transitionsTotal, m.commissionEventsTotal, m.ledgerEntriesTotal)
	return m
}

// Handler serves the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveTransition records a transition attempt against the state tables.
func (m *MetricsService) ObserveTransition(entity string, allowed bool) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(entity, strconv.FormatBool(allowed)).Inc()
}

// ObserveCommissionEvent records a commission lifecycle event.
func (m *MetricsService) ObserveCommissionEvent(event string) {
	if m == nil {
		return
	}
	m.commissionEventsTotal.WithLabelValues(event).Inc()
}

// ObserveLedgerEntry records an appended ledger entry.
func (m *MetricsService) ObserveLedgerEntry(entryType string) {
	if m == nil {
		return
	}
	m.ledgerEntriesTotal.WithLabelValues(entryType).Inc()
}
