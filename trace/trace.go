// Package trace carries request correlation identifiers from a context onto
// outgoing request headers.
//
// Every request gets a request ID: the one stored in the context when
// present, a fresh UUID otherwise. When the context carries a sampled or
// remote OpenTelemetry span, the W3C traceparent and tracestate headers are
// added as well. Headers the caller already set are never overwritten.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// requestIDKey is the context key for request ID values
	requestIDKey contextKey = "request_id"
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = "tracestate"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns a request ID from context if present
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns an existing request ID from context or generates a new one
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// InjectHeaders adds the request ID under requestIDHeader and the W3C trace
// context headers to headers, leaving any header already present untouched.
// An empty requestIDHeader disables request ID propagation.
// It returns the request ID that travels with the request, or "" when disabled.
func InjectHeaders(ctx context.Context, headers map[string]string, requestIDHeader string) string {
	var requestID string
	if requestIDHeader != "" {
		if existing, ok := lookup(headers, requestIDHeader); ok {
			requestID = existing
		} else {
			requestID = EnsureRequestID(ctx)
			headers[requestIDHeader] = requestID
		}
	}

	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	for k, v := range carrier {
		if _, ok := lookup(headers, k); !ok {
			headers[k] = v
		}
	}

	return requestID
}

// lookup finds a header by case-insensitive name.
func lookup(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
