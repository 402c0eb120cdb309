// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the directive pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "engram"

// Manager owns the metric registry and all instruments.
type Manager struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	directivesTotal   *prometheus.CounterVec
	directiveDuration *prometheus.HistogramVec
	sessionsLive      prometheus.Gauge
	memoryRecords     *prometheus.GaugeVec
	websocketClients  prometheus.Gauge
}

// NewManager creates a manager with a fresh registry, including the
// standard Go and process collectors.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Manager{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		directivesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directives_total",
			Help:      "Directives processed by mode and refusal.",
		}, []string{"mode", "refused"}),
		directiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "directive_duration_seconds",
			Help:      "Directive processing latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"mode"}),
		sessionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_live",
			Help:      "Live sessions.",
		}),
		memoryRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_records",
			Help:      "Memory records held per session.",
		}, []string{"session"}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInFlight,
		m.directivesTotal,
		m.directiveDuration,
		m.sessionsLive,
		m.memoryRecords,
		m.websocketClients,
	)
	return m
}

// Handler returns the scrape endpoint handler.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncInFlight marks a request as started.
func (m *Manager) IncInFlight() { m.httpInFlight.Inc() }

// DecInFlight marks a request as finished.
func (m *Manager) DecInFlight() { m.httpInFlight.Dec() }

// RecordDirective implements the pipeline recorder.
func (m *Manager) RecordDirective(mode string, refused bool, duration time.Duration) {
	m.directivesTotal.WithLabelValues(mode, strconv.FormatBool(refused)).Inc()
	if !refused {
		m.directiveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// SetSessionsLive sets the live session gauge.
func (m *Manager) SetSessionsLive(n int) {
	m.sessionsLive.Set(float64(n))
}

// SetMemoryRecords sets the per-session memory record gauge.
func (m *Manager) SetMemoryRecords(sessionID string, n int) {
	m.memoryRecords.WithLabelValues(sessionID).Set(float64(n))
}

// DropSession removes per-session series.
func (m *Manager) DropSession(sessionID string) {
	m.memoryRecords.DeleteLabelValues(sessionID)
}

// IncWebsocketClients marks a client as connected.
func (m *Manager) IncWebsocketClients() { m.websocketClients.Inc() }

// DecWebsocketClients marks a client as disconnected.
func (m *Manager) DecWebsocketClients() { m.websocketClients.Dec() }
