package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// NetHTTPOptions tunes the net/http engine.
type NetHTTPOptions struct {
	// DialTimeout bounds TCP connection establishment. Default: 5s
	DialTimeout time.Duration
	// TLSHandshakeTimeout bounds the TLS handshake. Default: 5s
	TLSHandshakeTimeout time.Duration
	// MaxResponseBytes caps the body read per transaction; 0 means unlimited.
	// A larger body fails the transaction with ErrBodyTooLarge.
	MaxResponseBytes int64
}

// NetHTTPHandle is a Handle backed by its own *http.Client and *http.Transport.
// Handles share nothing, so resetting one never disturbs another.
type NetHTTPHandle struct {
	mu        sync.Mutex
	opts      NetHTTPOptions
	transport *http.Transport
	client    *http.Client

	req        *Request
	status     int
	headers    string
	body       []byte
	closed     bool
	resetCount int
}

var _ Handle = (*NetHTTPHandle)(nil)

// NewNetHTTPHandle creates a handle with an idle transport.
func NewNetHTTPHandle(opts NetHTTPOptions) *NetHTTPHandle {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.TLSHandshakeTimeout <= 0 {
		opts.TLSHandshakeTimeout = 5 * time.Second
	}

	h := &NetHTTPHandle{opts: opts}
	h.transport = newNetTransport(opts)
	h.client = &http.Client{
		Transport: h.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

// NetHTTPFactory returns a Factory producing NetHTTPHandles.
func NetHTTPFactory(opts NetHTTPOptions) Factory {
	return func(context.Context) (Handle, error) {
		return NewNetHTTPHandle(opts), nil
	}
}

func newNetTransport(opts NetHTTPOptions) *http.Transport {
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: opts.TLSHandshakeTimeout,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Configure replaces the options used by the next Perform.
func (h *NetHTTPHandle) Configure(req Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.req = &req
}

// Perform runs the configured transaction.
func (h *NetHTTPHandle) Perform(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.req == nil {
		return ErrNotConfigured
	}
	h.status, h.headers, h.body = 0, "", nil

	if h.req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.req.Timeout)
		defer cancel()
	}

	httpReq, err := h.buildRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, h.opts.MaxResponseBytes)
	if err != nil {
		return err
	}

	h.status = resp.StatusCode
	h.headers = renderHeaderBlock(resp)
	h.body = body
	return nil
}

// readBody reads one byte past limit so an oversized body is reported instead of cut short.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

func (h *NetHTTPHandle) buildRequest(ctx context.Context) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if h.req.Verb.SendsBody() {
		implied, payload, err := EncodeBody(h.req.Body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
		contentType = requestContentType(h.req.Headers, implied, payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(h.req.Verb), h.req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range h.req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set(contentTypeHeader, contentType)
	}
	return httpReq, nil
}

// renderHeaderBlock rebuilds the raw header block: status line, header lines, blank line.
func renderHeaderBlock(resp *http.Response) string {
	var b strings.Builder
	b.WriteString(resp.Proto)
	b.WriteByte(' ')
	b.WriteString(resp.Status)
	b.WriteString("\r\n")
	_ = resp.Header.Write(&b)
	b.WriteString("\r\n")
	return b.String()
}

func (h *NetHTTPHandle) Status() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *NetHTTPHandle) HeaderBlock() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headers
}

func (h *NetHTTPHandle) Body() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.body
}

// Reset drops any connection the handle holds and clears the last transaction.
func (h *NetHTTPHandle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.transport.CloseIdleConnections()
	h.transport = newNetTransport(h.opts)
	h.client.Transport = h.transport
	h.req = nil
	h.status, h.headers, h.body = 0, "", nil
	h.resetCount++
}

// Resets returns how many times the handle has been reset.
func (h *NetHTTPHandle) Resets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resetCount
}

// Close releases idle connections; further Performs fail with ErrClosed.
func (h *NetHTTPHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.transport.CloseIdleConnections()
	return nil
}
