// Package config loads client configuration from defaults, a YAML document
// and POOLEDHTTP_* environment variables, in increasing order of priority.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
// POOLEDHTTP_POOL_SIZE sets pool.size.
const EnvPrefix = "POOLEDHTTP_"

// Defaults returns the default value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"pool.size":    1,
		"pool.timeout": "5s",

		"timeout.read":  "5s",
		"timeout.write": "30s",

		"retry.attempts": 3,
		"retry.wait":     "200ms",

		"transport.engine":           EngineNetHTTP,
		"transport.requestidheader":  "X-Request-ID",
		"transport.maxresponsebytes": 0,

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":     false,
		"observability.servicename": "pooledhttp",
		"observability.endpoint":    "",
		"observability.protocol":    ProtocolStdout,
		"observability.insecure":    false,
	}
}

// Load loads configuration with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is not empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if path == "" {
			return nil
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
}

// LoadBytes is Load with the YAML document given in memory.
func LoadBytes(data []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if len(data) == 0 {
			return nil
		}
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		return nil
	})
}

func load(loadDocument func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadDocument(k); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey converts POOLEDHTTP_UPPER_CASE to upper.case for koanf.
func envKey(k, v string) (string, any) {
	k = strings.TrimPrefix(k, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(k), "_", "."), v
}
