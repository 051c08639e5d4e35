package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// FastHTTPOptions tunes the fasthttp engine.
type FastHTTPOptions struct {
	// MaxResponseBytes caps the body size per transaction; 0 means fasthttp's default (unlimited).
	// A larger body fails the transaction with ErrBodyTooLarge.
	MaxResponseBytes int
	// Dial overrides how connections are established (in-memory listeners in tests).
	Dial fasthttp.DialFunc
}

// FastHTTPHandle is a Handle backed by a dedicated fasthttp.Client.
// fasthttp exposes the raw response header block directly, status line included.
type FastHTTPHandle struct {
	mu     sync.Mutex
	opts   FastHTTPOptions
	client *fasthttp.Client

	req        *Request
	status     int
	headers    string
	body       []byte
	closed     bool
	resetCount int
}

var _ Handle = (*FastHTTPHandle)(nil)

// NewFastHTTPHandle creates a handle with its own single-connection fasthttp client.
func NewFastHTTPHandle(opts FastHTTPOptions) *FastHTTPHandle {
	return &FastHTTPHandle{opts: opts, client: newFastClient(opts)}
}

// FastHTTPFactory returns a Factory producing FastHTTPHandles.
func FastHTTPFactory(opts FastHTTPOptions) Factory {
	return func(context.Context) (Handle, error) {
		return NewFastHTTPHandle(opts), nil
	}
}

func newFastClient(opts FastHTTPOptions) *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     1,
		MaxResponseBodySize: opts.MaxResponseBytes,
		Dial:                opts.Dial,
	}
}

// Configure replaces the options used by the next Perform.
func (h *FastHTTPHandle) Configure(req Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.req = &req
}

// Perform runs the configured transaction. The effective timeout is the
// request timeout, shortened by the context deadline when that comes first.
func (h *FastHTTPHandle) Perform(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.req == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	h.status, h.headers, h.body = 0, "", nil

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.req.URL)
	req.Header.SetMethod(string(h.req.Verb))
	for k, v := range h.req.Headers {
		req.Header.Set(k, v)
	}
	if h.req.Verb.SendsBody() {
		implied, payload, err := EncodeBody(h.req.Body)
		if err != nil {
			return err
		}
		if ct := requestContentType(h.req.Headers, implied, payload); ct != "" {
			req.Header.SetContentType(ct)
		}
		req.SetBody(payload)
	}
	if h.req.Verb == VerbHead {
		resp.SkipBody = true
	}

	var err error
	if timeout := effectiveTimeout(ctx, h.req.Timeout); timeout > 0 {
		err = h.client.DoTimeout(req, resp, timeout)
	} else {
		err = h.client.Do(req, resp)
	}
	if errors.Is(err, fasthttp.ErrBodyTooLarge) {
		return fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, h.opts.MaxResponseBytes)
	}
	if err != nil {
		return err
	}

	h.status = resp.StatusCode()
	h.headers = string(resp.Header.Header())
	h.body = append([]byte(nil), resp.Body()...)
	return nil
}

func effectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return time.Nanosecond
	}
	if timeout <= 0 || remaining < timeout {
		return remaining
	}
	return timeout
}

func (h *FastHTTPHandle) Status() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *FastHTTPHandle) HeaderBlock() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headers
}

func (h *FastHTTPHandle) Body() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.body
}

// Reset drops the client's connections and clears the last transaction.
func (h *FastHTTPHandle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.client.CloseIdleConnections()
	h.client = newFastClient(h.opts)
	h.req = nil
	h.status, h.headers, h.body = 0, "", nil
	h.resetCount++
}

// Resets returns how many times the handle has been reset.
func (h *FastHTTPHandle) Resets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resetCount
}

// Close releases idle connections; further Performs fail with ErrClosed.
func (h *FastHTTPHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.client.CloseIdleConnections()
	return nil
}
