package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/observe/pkg/observe"
)

// MetricsConfig configures the Prometheus notification hook.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "observe").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for round duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus notification hook.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "observe",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors.
type metrics struct {
	notificationsTotal   *prometheus.CounterVec
	notificationDuration *prometheus.HistogramVec
	subscribers          *prometheus.HistogramVec
	streamClients        prometheus.Gauge
	streamMessages       *prometheus.CounterVec
	wsErrors             *prometheus.CounterVec
	snapshotsTotal       *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance, created on the first call
// to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of notification rounds delivered",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "status"}),

		notificationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notification_duration_seconds",
			Help:        "Notification round duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"event"}),

		subscribers: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notification_subscribers",
			Help:        "Number of subscribers called per notification round",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}, []string{"event"}),

		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_clients",
			Help:        "Number of connected WebSocket stream clients",
			ConstLabels: config.ConstLabels,
		}),

		streamMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_messages_total",
			Help:        "Total stream messages by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		snapshotsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshots_total",
			Help:        "Total snapshot uploads by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// Prometheus returns a hook that records every notification round it sees.
//
// The collectors are registered once per process; options passed to later
// calls are ignored.
//
// Example:
//
//	hook := middleware.Prometheus(middleware.WithNamespace("todo"))
//	arr := observe.NewObservableArray(items, observe.WithNotifyHook(hook))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) observe.NotifyHook {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(info observe.NotifyInfo) func(bool) {
		event := string(info.Event)
		m.subscribers.WithLabelValues(event).Observe(float64(info.Subscribers))
		start := time.Now()

		return func(panicked bool) {
			m.notificationDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())

			status := "ok"
			if panicked {
				status = "panic"
			}
			m.notificationsTotal.WithLabelValues(event, status).Inc()
		}
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// categorizeError returns a low-cardinality category for err.
func categorizeError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "timeout"
	case strings.Contains(msg, "canceled"):
		return "canceled"
	case strings.Contains(msg, "not found"), strings.Contains(msg, "nosuchbucket"):
		return "not_found"
	case strings.Contains(msg, "forbidden"), strings.Contains(msg, "accessdenied"):
		return "forbidden"
	case strings.Contains(msg, "websocket"):
		return "websocket"
	default:
		return "internal"
	}
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// The recording functions are no-ops until Prometheus has been called.

// RecordClientConnect records a stream client connecting.
func RecordClientConnect() {
	if m := current(); m != nil {
		m.streamClients.Inc()
	}
}

// RecordClientDisconnect records a stream client going away.
func RecordClientDisconnect() {
	if m := current(); m != nil {
		m.streamClients.Dec()
	}
}

// RecordMessageSent records a stream message written to a client.
func RecordMessageSent() {
	if m := current(); m != nil {
		m.streamMessages.WithLabelValues("sent").Inc()
	}
}

// RecordMessageDropped records a stream message dropped because the client
// queue was full.
func RecordMessageDropped() {
	if m := current(); m != nil {
		m.streamMessages.WithLabelValues("dropped").Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordSnapshot records the outcome of a snapshot upload. A nil err counts
// as success; otherwise the error is categorized.
func RecordSnapshot(err error) {
	m := current()
	if m == nil {
		return
	}
	if err == nil {
		m.snapshotsTotal.WithLabelValues("success").Inc()
		return
	}
	m.snapshotsTotal.WithLabelValues(categorizeError(err)).Inc()
}
