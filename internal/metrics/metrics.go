// Package metrics records provider traffic and session activity as
// Prometheus series, with cheap atomic totals for status output.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every series.
const Namespace = "pocket"

// Metrics holds the Prometheus collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	session   *prometheus.CounterVec
	events    *prometheus.CounterVec
	sends     *prometheus.CounterVec
	blocks    *prometheus.CounterVec
	connected prometheus.Gauge

	requestsTotal atomic.Int64
	errorsTotal   atomic.Int64
	latencyNanos  atomic.Int64
}

// Global is the process-wide metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = New()

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_requests_total",
			Help:      "Wallet provider requests by method and outcome.",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Wallet provider request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		session: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_transitions_total",
			Help:      "Session state transitions.",
		}, []string{"transition"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_events_total",
			Help:      "Wallet notifications applied by the event bridge.",
		}, []string{"event"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "native_sends_total",
			Help:      "Native transfer submissions by outcome.",
		}, []string{"outcome"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "history_blocks_total",
			Help:      "Blocks visited by the history scanner.",
		}, []string{"result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "session_connected",
			Help:      "1 while a wallet session is connected.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.session, m.events, m.sends, m.blocks, m.connected)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordProviderRequest records one provider round trip.
func (m *Metrics) RecordProviderRequest(method string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errorsTotal.Add(1)
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
	m.requestsTotal.Add(1)
	m.latencyNanos.Add(d.Nanoseconds())
}

// RecordTransition records a session transition such as "connect" or
// "disconnect" and updates the connected gauge.
func (m *Metrics) RecordTransition(transition string, connected bool) {
	m.session.WithLabelValues(transition).Inc()
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// RecordEvent records a notification applied by the bridge.
func (m *Metrics) RecordEvent(event string) {
	m.events.WithLabelValues(event).Inc()
}

// RecordSend records a native transfer attempt.
func (m *Metrics) RecordSend(ok bool) {
	if ok {
		m.sends.WithLabelValues("submitted").Inc()
		return
	}
	m.sends.WithLabelValues("failed").Inc()
}

// RecordBlocks records scanned and skipped block counts for one history scan.
func (m *Metrics) RecordBlocks(scanned, skipped int) {
	m.blocks.WithLabelValues("scanned").Add(float64(scanned))
	m.blocks.WithLabelValues("skipped").Add(float64(skipped))
}

// Snapshot is a point-in-time summary of provider traffic.
type Snapshot struct {
	ProviderRequests int64
	ProviderErrors   int64
	AvgLatencyMs     float64
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() Snapshot {
	n := m.requestsTotal.Load()
	s := Snapshot{
		ProviderRequests: n,
		ProviderErrors:   m.errorsTotal.Load(),
	}
	if n > 0 {
		s.AvgLatencyMs = float64(m.latencyNanos.Load()) / float64(n) / 1e6
	}
	return s
}
