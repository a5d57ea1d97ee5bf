package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	tracerName = "patchplan-engine"
	meterName  = "patchplan-engine"
)

// metrics holds the pipeline's instrument handles. Counter creation only
// fails on invalid names, so failures degrade to noop instruments.
type metrics struct {
	scored      metric.Int64Counter
	scheduled   metric.Int64Counter
	unscheduled metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	m := &metrics{}

	var err error
	if m.scored, err = meter.Int64Counter("patchplan.patches.scored",
		metric.WithDescription("Patches scored by the risk scorer")); err != nil {
		slog.Warn("failed to create scored counter", "error", err)
	}
	if m.scheduled, err = meter.Int64Counter("patchplan.patches.scheduled",
		metric.WithDescription("Patches assigned a deployment slot")); err != nil {
		slog.Warn("failed to create scheduled counter", "error", err)
	}
	if m.unscheduled, err = meter.Int64Counter("patchplan.patches.unscheduled",
		metric.WithDescription("Patches the scheduler could not place")); err != nil {
		slog.Warn("failed to create unscheduled counter", "error", err)
	}
	return m
}

// NewTracerProvider creates a TracerProvider that exports pipeline spans
// through the given exporter with a SimpleSpanProcessor, so spans reach
// the collector as soon as each stage completes. Embedders that already
// run a provider can skip this and pass their own tracer via WithTracer.
func NewTracerProvider(exporter sdktrace.SpanExporter, logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	processor := sdktrace.NewSimpleSpanProcessor(exporter)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(tracerName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
	)
}
