package client

import (
	"fmt"

	"github.com/gaborage/pooledhttp/config"
	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/transport"
)

// NewFromConfig builds a client from loaded configuration.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	b := NewBuilder(log).
		WithPoolSize(cfg.Pool.Size).
		WithPoolTimeout(cfg.Pool.Timeout).
		WithReadTimeout(cfg.Timeout.Read).
		WithWriteTimeout(cfg.Timeout.Write).
		WithRetries(cfg.Retry.Attempts, cfg.Retry.Wait).
		WithRequestIDHeader(cfg.Transport.RequestIDHeader)

	switch cfg.Transport.Engine {
	case config.EngineNetHTTP:
		b.WithNetHTTP(transport.NetHTTPOptions{MaxResponseBytes: cfg.Transport.MaxResponseBytes})
	case config.EngineFastHTTP:
		b.WithFastHTTP(transport.FastHTTPOptions{MaxResponseBytes: int(cfg.Transport.MaxResponseBytes)})
	default:
		return nil, fmt.Errorf("unsupported transport engine %q", cfg.Transport.Engine)
	}

	for name, value := range cfg.Transport.Headers {
		b.WithDefaultHeader(name, value)
	}

	return b.Build(), nil
}
