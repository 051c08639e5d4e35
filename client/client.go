package client

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/gaborage/pooledhttp/internal/tracking"
	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/pool"
	"github.com/gaborage/pooledhttp/trace"
	"github.com/gaborage/pooledhttp/transport"
)

const (
	// EngineNetHTTP names the net/http transport engine
	EngineNetHTTP = "nethttp"
	// EngineFastHTTP names the fasthttp transport engine
	EngineFastHTTP = "fasthttp"
	// EngineCustom names a caller-supplied transport factory
	EngineCustom = "custom"
)

// Client sends HTTP requests through a lazily built pool of transport handles.
// It is safe for concurrent use.
type Client struct {
	factory         transport.Factory
	engine          string
	retry           RetryPolicy
	defaultHeaders  map[string]string
	requestIDHeader string
	logger          logger.Logger
	tracker         *tracking.Tracker

	mu             sync.RWMutex
	settings       Settings
	pool           *pool.Pool
	unregisterPool func()
	sfg            singleflight.Group
}

// NewClient creates a client with the net/http engine and default settings.
func NewClient(log logger.Logger) *Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	factory         transport.Factory
	engine          string
	retry           RetryPolicy
	settings        Settings
	defaultHeaders  map[string]string
	requestIDHeader string
	logger          logger.Logger
	trackerOpts     []tracking.Option
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		factory:         transport.NetHTTPFactory(transport.NetHTTPOptions{}),
		engine:          EngineNetHTTP,
		retry:           DefaultRetryPolicy(),
		defaultHeaders:  make(map[string]string),
		requestIDHeader: trace.HeaderXRequestID,
		logger:          log,
	}
}

// WithNetHTTP selects the net/http engine
func (b *Builder) WithNetHTTP(opts transport.NetHTTPOptions) *Builder {
	b.factory = transport.NetHTTPFactory(opts)
	b.engine = EngineNetHTTP
	return b
}

// WithFastHTTP selects the fasthttp engine
func (b *Builder) WithFastHTTP(opts transport.FastHTTPOptions) *Builder {
	b.factory = transport.FastHTTPFactory(opts)
	b.engine = EngineFastHTTP
	return b
}

// WithTransport makes the pool build its handles with factory
func (b *Builder) WithTransport(factory transport.Factory) *Builder {
	b.factory = factory
	b.engine = EngineCustom
	return b
}

// WithRetries sets the total number of attempts and the wait between them
func (b *Builder) WithRetries(attempts int, wait time.Duration) *Builder {
	b.retry = RetryPolicy{Attempts: attempts, Wait: wait}
	return b
}

// WithPoolSize sets how many handles the pool may hold
func (b *Builder) WithPoolSize(size int) *Builder {
	b.settings.PoolSize = size
	return b
}

// WithPoolTimeout sets how long a request waits for a free handle
func (b *Builder) WithPoolTimeout(timeout time.Duration) *Builder {
	b.settings.PoolTimeout = timeout
	return b
}

// WithReadTimeout sets the timeout of HEAD and GET requests
func (b *Builder) WithReadTimeout(timeout time.Duration) *Builder {
	b.settings.ReadTimeout = timeout
	return b
}

// WithWriteTimeout sets the timeout of POST, PUT and DELETE requests
func (b *Builder) WithWriteTimeout(timeout time.Duration) *Builder {
	b.settings.WriteTimeout = timeout
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.defaultHeaders[key] = value
	return b
}

// WithRequestIDHeader sets the header carrying the request ID; "" disables it
func (b *Builder) WithRequestIDHeader(name string) *Builder {
	b.requestIDHeader = name
	return b
}

// WithTracerProvider records request spans on tp instead of the global provider
func (b *Builder) WithTracerProvider(tp oteltrace.TracerProvider) *Builder {
	b.trackerOpts = append(b.trackerOpts, tracking.WithTracerProvider(tp))
	return b
}

// WithMeterProvider records request and pool metrics on mp instead of the global provider
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.trackerOpts = append(b.trackerOpts, tracking.WithMeterProvider(mp))
	return b
}

// Build creates the client with the configured options. No pool is built yet.
func (b *Builder) Build() *Client {
	return &Client{
		factory:         b.factory,
		engine:          b.engine,
		retry:           b.retry,
		settings:        b.settings,
		defaultHeaders:  maps.Clone(b.defaultHeaders),
		requestIDHeader: b.requestIDHeader,
		logger:          b.logger,
		tracker:         tracking.New(b.trackerOpts...),
	}
}

// Head performs a HEAD request with the read timeout
func (c *Client) Head(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, transport.VerbHead, url, headers, nil)
}

// Get performs a GET request with the read timeout
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, transport.VerbGet, url, headers, nil)
}

// Post performs a form POST with the write timeout. A map is sent as
// form-urlencoded fields; []byte, string and io.Reader data are sent as-is.
func (c *Client) Post(ctx context.Context, url string, data any, headers map[string]string) (*Response, error) {
	body, err := toPostBody(data, false)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, transport.VerbPost, url, headers, body)
}

// MultipartFormPost performs a multipart/form-data POST with the write timeout
func (c *Client) MultipartFormPost(ctx context.Context, url string, data any, headers map[string]string) (*Response, error) {
	body, err := toPostBody(data, true)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, transport.VerbPost, url, headers, body)
}

// Put performs a PUT of a raw body with the write timeout
func (c *Client) Put(ctx context.Context, url string, data []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, transport.VerbPut, url, headers, &transport.Body{Raw: data})
}

// Delete performs a DELETE with the write timeout
func (c *Client) Delete(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, transport.VerbDelete, url, headers, nil)
}

func (c *Client) do(ctx context.Context, verb transport.Verb, url string, headers map[string]string, body *transport.Body) (*Response, error) {
	req, err := c.buildRequest(verb, url, headers, body)
	if err != nil {
		return nil, err
	}
	return c.performWithRetry(ctx, req)
}

// buildRequest fixes every option of the request up front: the timeout class
// of the verb, default headers and per-call headers, per-call winning.
func (c *Client) buildRequest(verb transport.Verb, url string, headers map[string]string, body *transport.Body) (transport.Request, error) {
	if url == "" {
		return transport.Request{}, NewValidationError("URL cannot be empty", "url")
	}

	settings := c.Settings().WithDefaults()
	timeout := settings.WriteTimeout
	if verb == transport.VerbHead || verb == transport.VerbGet {
		timeout = settings.ReadTimeout
	}

	merged := make(map[string]string, len(c.defaultHeaders)+len(headers)+1)
	maps.Copy(merged, c.defaultHeaders)
	maps.Copy(merged, headers)

	return transport.Request{
		Verb:    verb,
		URL:     url,
		Headers: merged,
		Body:    body,
		Timeout: timeout,
	}, nil
}
