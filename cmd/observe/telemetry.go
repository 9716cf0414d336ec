package main

import (
	"context"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/observe/internal/config"
	"github.com/vango-dev/observe/pkg/middleware"
	"github.com/vango-dev/observe/pkg/observe"
)

// telemetry holds the notification hook built from the config and the
// resources it needs shut down.
type telemetry struct {
	hook           observe.NotifyHook
	metricsHandler http.Handler
	shutdown       func(context.Context) error
}

// newTelemetry wires Prometheus metrics and tracing as configured. Spans
// are exported as JSON to traceOut.
func newTelemetry(cfg *config.Config, traceOut io.Writer) (*telemetry, error) {
	t := &telemetry{
		shutdown: func(context.Context) error { return nil },
	}

	var hooks []observe.NotifyHook
	if cfg.MetricsEnabled() {
		hooks = append(hooks, middleware.Prometheus(middleware.WithNamespace(cfg.Metrics.Namespace)))
		t.metricsHandler = promhttp.Handler()
	}

	if cfg.Tracing.Enabled {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut))
		if err != nil {
			return nil, err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		hooks = append(hooks, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
			middleware.WithTracerProvider(tp),
		))
		t.shutdown = tp.Shutdown
	}

	if len(hooks) > 0 {
		t.hook = observe.ChainHooks(hooks...)
	}
	return t, nil
}
