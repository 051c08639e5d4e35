package tracking

import (
	"context"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

func spanContextFrom(ctx context.Context) trace.SpanContext {
	return trace.SpanContextFromContext(ctx)
}

func dataPoints(m metricdata.Metrics) int {
	if g, ok := m.Data.(metricdata.Gauge[int64]); ok {
		return len(g.DataPoints)
	}
	return 0
}
