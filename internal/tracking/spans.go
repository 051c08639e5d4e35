package tracking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
)

// Request tracks one logical client request across all of its attempts.
type Request struct {
	tracker *Tracker
	ctx     context.Context
	span    trace.Span
	verb    string
	start   time.Time
}

// StartRequest opens a client span for verb and url. The returned context
// carries the span so trace headers can be injected from it.
func (t *Tracker) StartRequest(ctx context.Context, verb, url string) (context.Context, *Request) {
	if t == nil {
		return ctx, &Request{ctx: ctx, verb: verb, start: time.Now()}
	}

	ctx, span := t.tracer.Start(ctx, verb,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(verb),
			semconv.URLFull(url),
		),
	)
	return ctx, &Request{tracker: t, ctx: ctx, span: span, verb: verb, start: time.Now()}
}

// Attempt records one transport attempt. status is 0 when the attempt failed
// before a response arrived.
func (r *Request) Attempt(attempt, status int, err error) {
	if r.tracker == nil {
		return
	}

	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.verb),
		attribute.Bool("error", err != nil),
	}
	if status > 0 {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
	}
	if r.tracker.attempts != nil {
		r.tracker.attempts.Add(r.ctx, 1, metric.WithAttributes(attrs...))
	}

	event := []attribute.KeyValue{attribute.Int("attempt", attempt)}
	if status > 0 {
		event = append(event, semconv.HTTPResponseStatusCode(status))
	}
	if err != nil {
		event = append(event, attribute.String("error", err.Error()))
	}
	r.span.AddEvent("attempt", trace.WithAttributes(event...))
}

// Retry records that an attempt is about to be repeated.
func (r *Request) Retry(reason string) {
	if r.tracker == nil || r.tracker.retries == nil {
		return
	}
	r.tracker.retries.Add(r.ctx, 1, metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.verb),
		attribute.String("reason", reason),
	))
}

// End closes the span and records the request duration.
// attempts is the number of transport attempts made.
func (r *Request) End(status, attempts int, err error) {
	if r.tracker == nil {
		return
	}

	attrs := []attribute.KeyValue{semconv.HTTPRequestMethodKey.String(r.verb)}
	if status > 0 {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
	}
	if r.tracker.duration != nil {
		r.tracker.duration.Record(r.ctx, time.Since(r.start).Seconds(), metric.WithAttributes(attrs...))
	}

	if attempts > 1 {
		r.span.SetAttributes(semconv.HTTPRequestResendCount(attempts - 1))
	}
	if status > 0 {
		r.span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}
	switch {
	case err != nil:
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	case status >= 500:
		r.span.SetStatus(codes.Error, "server error")
	}
	r.span.End()
}
