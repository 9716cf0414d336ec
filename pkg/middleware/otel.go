package middleware

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/observe/pkg/observe"
)

// Default tracer name for observe instrumentation.
const defaultTracerName = "observe"

// errSubscriberPanicked is recorded on spans of rounds that panicked.
var errSubscriberPanicked = errors.New("observe: subscriber panicked")

// OTelConfig configures the OpenTelemetry notification hook.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "observe").
	TracerName string

	// TracerProvider supplies the tracer. If nil, the global provider is
	// used.
	TracerProvider trace.TracerProvider

	// Filter determines which rounds to trace.
	// Return true to trace the round, false to skip.
	// If nil, all rounds are traced.
	Filter func(info observe.NotifyInfo) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(info observe.NotifyInfo) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry notification hook.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for notification rounds.
func WithEventFilter(filter func(info observe.NotifyInfo) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(info observe.NotifyInfo) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry returns a hook that starts one span per notification round.
//
// Spans are named "observe.notify <event>" and carry the source ID, the event
// and the subscriber count. A round in which a subscriber panicked ends with
// status Error and a recorded error event.
//
// Without WithTracerProvider the hook uses the global tracer provider.
// Configure it in main() before creating observables:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) observe.NotifyHook {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(info observe.NotifyInfo) func(bool) {
		if config.Filter != nil && !config.Filter(info) {
			return nil
		}

		attrs := []attribute.KeyValue{
			attribute.Int64("observe.source_id", int64(info.SourceID)),
			attribute.String("observe.event", string(info.Event)),
			attribute.Int("observe.subscribers", info.Subscribers),
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(info)...)
		}

		_, span := config.tracer.Start(
			context.Background(),
			formatSpanName(info),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)

		return func(panicked bool) {
			if panicked {
				span.RecordError(errSubscriberPanicked)
				span.SetStatus(codes.Error, errSubscriberPanicked.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
	}
}

func formatSpanName(info observe.NotifyInfo) string {
	return fmt.Sprintf("observe.notify %s", info.Event)
}
