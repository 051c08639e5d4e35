package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gaborage/pooledhttp/pool"
	"github.com/gaborage/pooledhttp/transport"
)

// ClientError represents the different failures a request can end with
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	PoolTimeoutErrorType ErrorType = "pool_timeout"
	TransportErrorType   ErrorType = "transport"
	ValidationErrorType  ErrorType = "validation"
)

// PoolTimeoutError reports that no pooled handle became available in time.
// It is never retried.
type PoolTimeoutError struct {
	Timeout time.Duration
	cause   *pool.TimeoutError
}

func (e *PoolTimeoutError) Error() string {
	return fmt.Sprintf("pool timeout: no connection available within %s", e.Timeout)
}

func (e *PoolTimeoutError) Type() ErrorType {
	return PoolTimeoutErrorType
}

// Unwrap exposes the pool error, so errors.Is(err, pool.ErrTimeout) holds.
func (e *PoolTimeoutError) Unwrap() error {
	return e.cause
}

// TransportError is a failure below HTTP: connection refused, DNS failure,
// TLS failure, timeout. It is retried until the attempts run out.
type TransportError struct {
	Verb    transport.Verb
	URL     string
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s (attempt %d): %v", e.Verb, e.URL, e.Attempt, e.Err)
}

func (e *TransportError) Type() ErrorType {
	return TransportErrorType
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a request before any handle is borrowed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.Message, e.Field)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Type() ErrorType {
	return ValidationErrorType
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &ValidationError{Message: message, Field: field}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// asPoolError converts pool acquisition failures into client errors.
func asPoolError(err error) error {
	var timeoutErr *pool.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &PoolTimeoutError{Timeout: timeoutErr.Timeout, cause: timeoutErr}
	}
	return err
}
