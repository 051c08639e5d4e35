package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// disabledProvider is returned when observability is off. Spans and metrics
// recorded through it are dropped.
type disabledProvider struct{}

func (disabledProvider) TracerProvider() trace.TracerProvider {
	return tracenoop.NewTracerProvider()
}

func (disabledProvider) MeterProvider() metric.MeterProvider {
	return metricnoop.NewMeterProvider()
}

func (disabledProvider) Shutdown(context.Context) error { return nil }

func (disabledProvider) ForceFlush(context.Context) error { return nil }
