// Package tracking records OpenTelemetry spans and metrics for client requests
// and connection pools.
//
// Instrument creation failures are reported on stderr and never fail a request.
package tracking

import (
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Instrumentation scope for tracer and meter
	instrumentationName = "github.com/gaborage/pooledhttp"

	// Metric names following OpenTelemetry semantic conventions where one exists
	metricRequestDuration = "http.client.request.duration"
	metricAttempts        = "http.client.request.attempts"
	metricRetries         = "http.client.request.retries"

	// Connection pool metrics
	metricPoolAcquired = "pooledhttp.pool.acquired"
	metricPoolIdle     = "pooledhttp.pool.idle"
	metricPoolTotal    = "pooledhttp.pool.total"
	metricPoolMax      = "pooledhttp.pool.max"
)

// Tracker owns the tracer and metric instruments used by a client.
// A nil *Tracker is valid and records nothing.
type Tracker struct {
	tracer trace.Tracer
	meter  metric.Meter

	duration metric.Float64Histogram
	attempts metric.Int64Counter
	retries  metric.Int64Counter
}

// Option customizes a Tracker.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider uses mp instead of the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// New creates a Tracker. Without options it uses the global OpenTelemetry providers,
// which are no-ops until observability is configured.
func New(opts ...Option) *Tracker {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	t := &Tracker{
		tracer: o.tracerProvider.Tracer(instrumentationName),
		meter:  o.meterProvider.Meter(instrumentationName),
	}
	t.initInstruments()
	return t
}

func (t *Tracker) initInstruments() {
	var err error

	t.duration, err = t.meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of HTTP client requests including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	t.attempts, err = t.meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of transport attempts made by the HTTP client"),
	)
	logMetricError(metricAttempts, err)

	t.retries, err = t.meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of attempts that were retried"),
	)
	logMetricError(metricRetries, err)
}

// logMetricError logs a metric initialization or registration error to stderr.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

// noOpCleanup returns a cleanup function for registrations that never happened.
func noOpCleanup() func() {
	return func() {}
}
