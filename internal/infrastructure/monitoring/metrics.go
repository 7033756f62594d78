package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the preview service.
// All methods are nil-safe so components can run unmetered in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	TabsOpen       prometheus.Gauge

	// Synchronization metrics
	SyncsApplied      prometheus.Counter
	SyncsSkipped      *prometheus.CounterVec
	DebounceDiscarded prometheus.Counter

	// Render metrics
	RendersTotal prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSCommands    *prometheus.CounterVec
}

// New creates a metrics collector backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "previewd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "previewd_sessions_active",
			Help: "Number of live preview sessions",
		}),
		TabsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "previewd_tabs_open",
			Help: "Number of open preview tabs across all sessions",
		}),

		SyncsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "previewd_syncs_applied_total",
			Help: "Synchronizations written into a tab",
		}),
		SyncsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_syncs_skipped_total",
				Help: "Synchronizations skipped by the scheduler guard",
			},
			[]string{"reason"},
		),
		DebounceDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "previewd_debounce_discarded_total",
			Help: "Pending updates superseded by a later change event",
		}),

		RendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "previewd_renders_total",
			Help: "Display payloads produced",
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "previewd_ws_connections",
			Help: "Active WebSocket connections",
		}),
		WSCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "previewd_ws_commands_total",
				Help: "Commands received on the WebSocket channel",
			},
			[]string{"command"},
		),
	}
}

// Handler exposes the metrics registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SyncApplied records a synchronization written into a tab.
func (m *Metrics) SyncApplied() {
	if m == nil {
		return
	}
	m.SyncsApplied.Inc()
}

// SyncSkipped records a skipped synchronization with its guard reason.
func (m *Metrics) SyncSkipped(reason string) {
	if m == nil {
		return
	}
	m.SyncsSkipped.WithLabelValues(reason).Inc()
}

// DebounceSuperseded records a pending update replaced by a newer one.
func (m *Metrics) DebounceSuperseded() {
	if m == nil {
		return
	}
	m.DebounceDiscarded.Inc()
}

// RenderProduced records a produced display payload.
func (m *Metrics) RenderProduced() {
	if m == nil {
		return
	}
	m.RendersTotal.Inc()
}

// SessionOpened and SessionClosed track the live-session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// TabDelta adjusts the open-tab gauge.
func (m *Metrics) TabDelta(delta int) {
	if m == nil {
		return
	}
	m.TabsOpen.Add(float64(delta))
}

// WSConnected and WSDisconnected track the connection gauge.
func (m *Metrics) WSConnected() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) WSDisconnected() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// CommandReceived records a WebSocket command by tag.
func (m *Metrics) CommandReceived(command string) {
	if m == nil {
		return
	}
	m.WSCommands.WithLabelValues(command).Inc()
}
