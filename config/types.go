package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Transport engine names
const (
	EngineNetHTTP  = "nethttp"
	EngineFastHTTP = "fasthttp"
)

// Observability exporter protocols
const (
	ProtocolStdout = "stdout"
	ProtocolHTTP   = "http"
	ProtocolGRPC   = "grpc"
)

// Config represents the overall client configuration structure.
// The embedded koanf.Koanf instance allows access to keys not declared here.
type Config struct {
	Pool          PoolConfig          `koanf:"pool" json:"pool" yaml:"pool"`
	Timeout       TimeoutConfig       `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Retry         RetryConfig         `koanf:"retry" json:"retry" yaml:"retry"`
	Transport     TransportConfig     `koanf:"transport" json:"transport" yaml:"transport"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-"`
}

// PoolConfig sizes the handle pool.
type PoolConfig struct {
	// Size is the maximum number of handles. Default: 1
	Size int `koanf:"size" json:"size" yaml:"size" validate:"min=1,max=1024"`
	// Timeout bounds how long a request waits for a free handle. Default: 5s
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
}

// TimeoutConfig holds the per-request timeouts by verb class.
type TimeoutConfig struct {
	// Read applies to HEAD and GET. Default: 5s
	Read time.Duration `koanf:"read" json:"read" yaml:"read" validate:"gt=0"`
	// Write applies to POST, PUT and DELETE. Default: 30s
	Write time.Duration `koanf:"write" json:"write" yaml:"write" validate:"gt=0"`
}

// RetryConfig holds the retry policy.
type RetryConfig struct {
	// Attempts counts every attempt, the first included. Default: 3
	Attempts int `koanf:"attempts" json:"attempts" yaml:"attempts" validate:"min=1,max=100"`
	// Wait is the fixed pause before each retry. Default: 200ms
	Wait time.Duration `koanf:"wait" json:"wait" yaml:"wait" validate:"gt=0"`
}

// TransportConfig selects and tunes the transport engine.
type TransportConfig struct {
	Engine           string            `koanf:"engine" json:"engine" yaml:"engine" validate:"oneof=nethttp fasthttp"`
	RequestIDHeader  string            `koanf:"requestidheader" json:"requestidheader" yaml:"requestidheader"`
	MaxResponseBytes int64             `koanf:"maxresponsebytes" json:"maxresponsebytes" yaml:"maxresponsebytes" validate:"gte=0"`
	Headers          map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ObservabilityConfig controls OpenTelemetry export.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName string `koanf:"servicename" json:"servicename" yaml:"servicename" validate:"required_if=Enabled true"`
	Endpoint    string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol    string `koanf:"protocol" json:"protocol" yaml:"protocol" validate:"oneof=stdout http grpc"`
	Insecure    bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}

// Koanf returns the underlying koanf instance, or nil for a Config not built by a loader.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
