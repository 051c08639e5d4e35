package tracking

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/pooledhttp/pool"
)

// PoolStatsSource is anything that reports pool usage, usually a *pool.Pool.
type PoolStatsSource interface {
	Stats() pool.Stats
}

// createGauge creates an observable gauge and logs errors without failing.
func createGauge(meter metric.Meter, name, description string) metric.Int64ObservableGauge {
	gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(description))
	logMetricError(name, err)
	return gauge
}

// collectInstruments collects non-nil observable instruments into a slice.
func collectInstruments(gauges ...metric.Int64ObservableGauge) []metric.Observable {
	var instruments []metric.Observable
	for _, g := range gauges {
		if g != nil {
			instruments = append(instruments, g)
		}
	}
	return instruments
}

type poolMetricsRegistration struct {
	source        PoolStatsSource
	acquiredGauge metric.Int64ObservableGauge
	idleGauge     metric.Int64ObservableGauge
	totalGauge    metric.Int64ObservableGauge
	maxGauge      metric.Int64ObservableGauge
	attrs         []attribute.KeyValue
}

func (r *poolMetricsRegistration) observe(_ context.Context, observer metric.Observer) error {
	stats := r.source.Stats()
	opt := metric.WithAttributes(r.attrs...)

	if r.acquiredGauge != nil {
		observer.ObserveInt64(r.acquiredGauge, int64(stats.Acquired), opt)
	}
	if r.idleGauge != nil {
		observer.ObserveInt64(r.idleGauge, int64(stats.Idle), opt)
	}
	if r.totalGauge != nil {
		observer.ObserveInt64(r.totalGauge, int64(stats.Total), opt)
	}
	if r.maxGauge != nil {
		observer.ObserveInt64(r.maxGauge, int64(stats.MaxSize), opt)
	}
	return nil
}

// RegisterPoolMetrics reports source's usage through observable gauges until the
// returned function is called. engine identifies the transport behind the pool.
func (t *Tracker) RegisterPoolMetrics(source PoolStatsSource, engine string) func() {
	if t == nil || source == nil {
		return noOpCleanup()
	}

	reg := &poolMetricsRegistration{
		source: source,
		attrs:  []attribute.KeyValue{attribute.String("pooledhttp.engine", engine)},
	}
	reg.acquiredGauge = createGauge(t.meter, metricPoolAcquired, "Number of handles currently lent out")
	reg.idleGauge = createGauge(t.meter, metricPoolIdle, "Number of idle handles in the pool")
	reg.totalGauge = createGauge(t.meter, metricPoolTotal, "Number of handles constructed by the pool")
	reg.maxGauge = createGauge(t.meter, metricPoolMax, "Maximum number of handles the pool may hold")

	instruments := collectInstruments(reg.acquiredGauge, reg.idleGauge, reg.totalGauge, reg.maxGauge)
	if len(instruments) == 0 {
		return noOpCleanup()
	}

	registration, err := t.meter.RegisterCallback(reg.observe, instruments...)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noOpCleanup()
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
