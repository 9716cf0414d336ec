package middleware

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/observe/pkg/observe"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogram(t *testing.T, o prometheus.Observer) *dto.Histogram {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram()
}

func TestPrometheusHook_RecordsRounds(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	s := observe.NewSubscribable(observe.WithNotifyHook(Prometheus(WithRegistry(reg))))
	s.Subscribe(func(any) {})
	s.Subscribe(func(any) {})
	s.Subscribe(func(any) {}, observe.ForEvent("custom"))

	s.NotifySubscribers(1, "")
	s.NotifySubscribers(2, "")
	s.NotifySubscribers(3, "custom")
	s.NotifySubscribers(4, "nobody")

	m := current()
	if got := metricCounterValue(t, m.notificationsTotal.WithLabelValues("change", "ok")); got != 2 {
		t.Fatalf("notifications_total(change, ok)=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.notificationsTotal.WithLabelValues("custom", "ok")); got != 1 {
		t.Fatalf("notifications_total(custom, ok)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.notificationsTotal.WithLabelValues("nobody", "ok")); got != 0 {
		t.Fatalf("rounds without subscribers must not be recorded, got %v", got)
	}

	h := metricHistogram(t, m.subscribers.WithLabelValues("change"))
	if h.GetSampleCount() != 2 || h.GetSampleSum() != 4 {
		t.Fatalf("subscribers(change) count=%d sum=%v, want 2 and 4", h.GetSampleCount(), h.GetSampleSum())
	}
	if got := metricHistogram(t, m.notificationDuration.WithLabelValues("change")).GetSampleCount(); got != 2 {
		t.Fatalf("duration(change) count=%d, want 2", got)
	}
}

func TestPrometheusHook_RecordsPanics(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	s := observe.NewSubscribable(observe.WithNotifyHook(Prometheus(WithRegistry(reg))))
	s.Subscribe(func(any) { panic("boom") })

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		s.NotifySubscribers(nil, "")
	}()

	m := current()
	if got := metricCounterValue(t, m.notificationsTotal.WithLabelValues("change", "panic")); got != 1 {
		t.Fatalf("notifications_total(change, panic)=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.notificationsTotal.WithLabelValues("change", "ok")); got != 0 {
		t.Fatalf("notifications_total(change, ok)=%v, want 0", got)
	}
}

func TestPrometheusHook_InitializesOnce(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	Prometheus(WithRegistry(reg), WithNamespace("first"))
	first := current()
	// A second registration on the same registry would panic with a
	// duplicate collector error if metrics were created again.
	Prometheus(WithRegistry(reg), WithNamespace("second"))

	if current() != first {
		t.Fatal("expected metrics to be created once")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "first_") {
			t.Fatalf("unexpected metric family %q", f.GetName())
		}
	}
}

func TestRecordFunctions(t *testing.T) {
	t.Run("no-op before initialization", func(t *testing.T) {
		resetGlobalMetricsForTest()
		RecordClientConnect()
		RecordClientDisconnect()
		RecordMessageSent()
		RecordMessageDropped()
		RecordWebSocketError("read")
		RecordSnapshot(nil)
	})

	t.Run("records after initialization", func(t *testing.T) {
		resetGlobalMetricsForTest()
		Prometheus(WithRegistry(prometheus.NewRegistry()))
		m := current()

		RecordClientConnect()
		RecordClientConnect()
		RecordClientDisconnect()
		if got := metricGaugeValue(t, m.streamClients); got != 1 {
			t.Fatalf("stream_clients=%v, want 1", got)
		}

		RecordMessageSent()
		RecordMessageSent()
		RecordMessageDropped()
		if got := metricCounterValue(t, m.streamMessages.WithLabelValues("sent")); got != 2 {
			t.Fatalf("stream_messages(sent)=%v, want 2", got)
		}
		if got := metricCounterValue(t, m.streamMessages.WithLabelValues("dropped")); got != 1 {
			t.Fatalf("stream_messages(dropped)=%v, want 1", got)
		}

		RecordWebSocketError("write")
		if got := metricCounterValue(t, m.wsErrors.WithLabelValues("write")); got != 1 {
			t.Fatalf("websocket_errors(write)=%v, want 1", got)
		}

		RecordSnapshot(nil)
		RecordSnapshot(errors.New("operation error S3: PutObject, https response error StatusCode: 403, AccessDenied"))
		if got := metricCounterValue(t, m.snapshotsTotal.WithLabelValues("success")); got != 1 {
			t.Fatalf("snapshots(success)=%v, want 1", got)
		}
		if got := metricCounterValue(t, m.snapshotsTotal.WithLabelValues("forbidden")); got != 1 {
			t.Fatalf("snapshots(forbidden)=%v, want 1", got)
		}
	})
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  string
		want string
	}{
		{"context deadline exceeded", "timeout"},
		{"i/o timeout", "timeout"},
		{"context canceled", "canceled"},
		{"NoSuchBucket: bucket does not exist", "not_found"},
		{"403 Forbidden", "forbidden"},
		{"websocket: close sent", "websocket"},
		{"something else", "internal"},
	}

	for _, tt := range tests {
		if got := categorizeError(errors.New(tt.err)); got != tt.want {
			t.Errorf("categorizeError(%q) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
