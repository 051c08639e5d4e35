// Package transport defines the handle capability the pool hands out and the
// two engines that implement it.
//
// A Handle performs exactly one HTTP transaction at a time. It is configured
// from a fixed Request record, performs the request, and then exposes the
// status code, the raw header block (status line first, CRLF separated) and
// the body of the last transaction. Reset abandons any state left behind by a
// failed transaction; Close releases the handle for good and is called once by
// the pool on shutdown.
//
// Handles never follow redirects: a 3xx response is returned as-is.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Verb is an HTTP method supported by the client.
type Verb string

const (
	VerbHead   Verb = http.MethodHead
	VerbGet    Verb = http.MethodGet
	VerbPost   Verb = http.MethodPost
	VerbPut    Verb = http.MethodPut
	VerbDelete Verb = http.MethodDelete
)

// SendsBody reports whether the verb transmits the request body.
func (v Verb) SendsBody() bool {
	return v == VerbPost || v == VerbPut
}

// ErrClosed is returned by Perform on a handle that has been closed.
var ErrClosed = errors.New("transport: handle closed")

// ErrNotConfigured is returned by Perform when Configure was never called.
var ErrNotConfigured = errors.New("transport: handle not configured")

// ErrBodyTooLarge is returned by Perform when the response body exceeds the
// engine's MaxResponseBytes. The body is never truncated.
var ErrBodyTooLarge = errors.New("transport: response body exceeds limit")

// Field is a named form field of a POST body.
type Field struct {
	Name    string
	Content string
}

// Body is a request payload: either raw bytes or a list of fields.
// Fields are form-urlencoded unless Multipart is set.
type Body struct {
	Raw       []byte
	Fields    []Field
	Multipart bool
}

// Request is the fixed set of options a handle recognizes.
// It is built once per call and never mutated afterwards.
type Request struct {
	Verb    Verb
	URL     string
	Headers map[string]string
	Body    *Body
	Timeout time.Duration
}

// Handle is one reusable unit able to run a single HTTP transaction at a time.
type Handle interface {
	// Configure replaces the options used by the next Perform.
	Configure(req Request)
	// Perform runs the configured transaction. A non-nil error is a transport-level failure.
	Perform(ctx context.Context) error
	// Status returns the status code of the last transaction.
	Status() int
	// HeaderBlock returns the raw header block of the last transaction.
	HeaderBlock() string
	// Body returns the body of the last transaction.
	Body() []byte
	// Reset abandons internal state so a broken handle can serve a later request.
	Reset()
	// Close releases the handle's resources.
	Close() error
}

// Factory creates a new Handle.
type Factory func(ctx context.Context) (Handle, error)
