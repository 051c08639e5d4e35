// Package observability sets up OpenTelemetry tracing and metrics export for
// the client from config.ObservabilityConfig.
//
// The stdout protocol pretty-prints spans and metrics, which suits local
// debugging and the CLI. The http and grpc protocols export over OTLP to
// Endpoint. When observability is disabled a no-op provider is returned.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gaborage/pooledhttp/config"
	"github.com/gaborage/pooledhttp/logger"
)

// Provider manages the lifecycle of the tracer and meter providers.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// MeterProvider returns the configured meter provider.
	MeterProvider() metric.MeterProvider

	// Shutdown flushes pending telemetry and stops the exporters.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately exports any pending telemetry.
	ForceFlush(ctx context.Context) error
}

// Option customizes provider construction.
type Option func(*options)

type options struct {
	writer         io.Writer
	serviceVersion string
	setGlobal      bool
}

// WithWriter sends stdout-protocol output to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithServiceVersion records version as the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(o *options) { o.serviceVersion = version }
}

// WithoutGlobal keeps the providers out of the otel global registry.
func WithoutGlobal() Option {
	return func(o *options) { o.setGlobal = false }
}

// provider implements Provider with the OpenTelemetry SDK.
type provider struct {
	cfg            config.ObservabilityConfig
	opts           options
	logger         logger.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.Mutex
}

// NewProvider creates a provider for cfg. A disabled configuration yields a
// no-op provider. Unless WithoutGlobal is given, the providers and the W3C
// trace context propagator are installed as otel globals.
func NewProvider(cfg config.ObservabilityConfig, log logger.Logger, opts ...Option) (Provider, error) {
	if log == nil {
		log = logger.Nop()
	}
	o := options{writer: os.Stdout, setGlobal: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Observability disabled, using no-op provider")
		return disabledProvider{}, nil
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	p := &provider{cfg: cfg, opts: o, logger: log}

	res, err := p.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	if err := p.initTraceProvider(res); err != nil {
		return nil, fmt.Errorf("failed to initialize trace provider: %w", err)
	}
	if err := p.initMeterProvider(res); err != nil {
		_ = p.tracerProvider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	if o.setGlobal {
		otel.SetTracerProvider(p.tracerProvider)
		otel.SetMeterProvider(p.meterProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	log.Info().
		Str("service", cfg.ServiceName).
		Str("protocol", cfg.Protocol).
		Str("endpoint", cfg.Endpoint).
		Msg("Observability provider created")
	return p, nil
}

func validate(cfg config.ObservabilityConfig) error {
	if cfg.ServiceName == "" {
		return ErrMissingServiceName
	}
	switch cfg.Protocol {
	case config.ProtocolStdout:
		return nil
	case config.ProtocolHTTP, config.ProtocolGRPC:
		if cfg.Endpoint == "" {
			return ErrMissingEndpoint
		}
		return nil
	default:
		return fmt.Errorf("protocol '%s': %w", cfg.Protocol, ErrInvalidProtocol)
	}
}

// createResource merges the SDK default resource with the service attributes.
func (p *provider) createResource() (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(p.cfg.ServiceName)),
	}
	if p.opts.serviceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(p.opts.serviceVersion)))
	}

	customRes, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), customRes)
}

func (p *provider) initTraceProvider(res *resource.Resource) error {
	exporter, err := p.createTraceExporter()
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	return nil
}

func (p *provider) createTraceExporter() (sdktrace.SpanExporter, error) {
	p.logger.Debug().Str("protocol", p.cfg.Protocol).Str("endpoint", p.cfg.Endpoint).Msg("Creating trace exporter")

	switch p.cfg.Protocol {
	case config.ProtocolHTTP:
		opts := []otlptracehttp.Option{endpointOption(p.cfg.Endpoint, otlptracehttp.WithEndpoint, otlptracehttp.WithEndpointURL)}
		if p.cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(context.Background(), opts...)
	case config.ProtocolGRPC:
		opts := []otlptracegrpc.Option{endpointOption(p.cfg.Endpoint, otlptracegrpc.WithEndpoint, otlptracegrpc.WithEndpointURL)}
		if p.cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	default:
		return stdouttrace.New(stdouttrace.WithWriter(p.opts.writer), stdouttrace.WithPrettyPrint())
	}
}

// endpointOption picks the URL form of an exporter option when endpoint carries a scheme.
func endpointOption[T any](endpoint string, hostPort, url func(string) T) T {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return url(endpoint)
	}
	return hostPort(endpoint)
}

func (p *provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

func (p *provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Shutdown stops both providers and joins their errors.
//
//nolint:dupl // Shutdown and ForceFlush have similar structure but different semantics
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown trace provider: %w", err))
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// ForceFlush exports pending spans and metrics.
//
//nolint:dupl // Shutdown and ForceFlush have similar structure but different semantics
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.tracerProvider.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush trace provider: %w", err))
	}
	if err := p.meterProvider.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush meter provider: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("flush errors: %w", errors.Join(errs...))
	}
	return nil
}
