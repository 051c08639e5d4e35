package observability

import "errors"

// ErrMissingServiceName is returned when observability is enabled but no service name is configured.
var ErrMissingServiceName = errors.New("observability: service name is required when observability is enabled")

// ErrMissingEndpoint is returned when an OTLP protocol is selected without an endpoint.
var ErrMissingEndpoint = errors.New("observability: endpoint is required for OTLP export")

// ErrInvalidProtocol is returned when the protocol is not "stdout", "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be one of 'stdout', 'http' or 'grpc'")
