package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gaborage/pooledhttp/config"
)

// DefaultMetricInterval is how often the periodic reader exports metrics.
const DefaultMetricInterval = 15 * time.Second

func (p *provider) initMeterProvider(res *resource.Resource) error {
	exporter, err := p.createMetricExporter()
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricInterval))
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return nil
}

// createMetricExporter mirrors createTraceExporter; both signals share the protocol and endpoint.
func (p *provider) createMetricExporter() (sdkmetric.Exporter, error) {
	switch p.cfg.Protocol {
	case config.ProtocolHTTP:
		opts := []otlpmetrichttp.Option{endpointOption(p.cfg.Endpoint, otlpmetrichttp.WithEndpoint, otlpmetrichttp.WithEndpointURL)}
		if p.cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case config.ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{endpointOption(p.cfg.Endpoint, otlpmetricgrpc.WithEndpoint, otlpmetricgrpc.WithEndpointURL)}
		if p.cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return stdoutmetric.New(stdoutmetric.WithWriter(p.opts.writer), stdoutmetric.WithPrettyPrint())
	}
}
