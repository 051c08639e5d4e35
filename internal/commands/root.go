// Package commands implements the pooledhttp command line interface.
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/pooledhttp/client"
	"github.com/gaborage/pooledhttp/config"
	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/observability"
)

// GlobalOptions holds the flags shared by every request command
type GlobalOptions struct {
	ConfigPath   string
	Headers      []string
	PoolSize     int
	PoolTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Engine       string
	LogLevel     string
}

// NewRootCommand creates the pooledhttp root command with all subcommands attached
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pooledhttp",
		Short: "Send HTTP requests through a pooled client",
		Long: `pooledhttp sends HTTP requests through a bounded pool of reusable transport
handles, with fixed-wait retries on transport errors and server errors.

Configuration is read from defaults, an optional YAML file and POOLEDHTTP_*
environment variables; flags override all of them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	flags.StringArrayVarP(&opts.Headers, "header", "H", nil, `Request header "Name: Value" (repeatable)`)
	flags.IntVar(&opts.PoolSize, "pool-size", 0, "Maximum number of pooled handles")
	flags.DurationVar(&opts.PoolTimeout, "pool-timeout", 0, "How long to wait for a free handle")
	flags.DurationVar(&opts.ReadTimeout, "read-timeout", 0, "Timeout for HEAD and GET")
	flags.DurationVar(&opts.WriteTimeout, "write-timeout", 0, "Timeout for POST, PUT and DELETE")
	flags.StringVar(&opts.Engine, "engine", "", "Transport engine (nethttp|fasthttp)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug|info|warn|error|disabled)")

	rootCmd.AddCommand(
		newVerbCommand(opts, "get", "Send a GET request"),
		newVerbCommand(opts, "head", "Send a HEAD request"),
		newVerbCommand(opts, "delete", "Send a DELETE request"),
		NewPostCommand(opts),
		NewPutCommand(opts),
		NewBenchCommand(opts),
		NewVersionCommand(version),
	)

	return rootCmd
}

// session is a configured client plus the resources to release after the command.
type session struct {
	client   *client.Client
	headers  map[string]string
	provider observability.Provider
	log      logger.Logger
}

func (s *session) Close() {
	s.client.Disconnect()
	if err := observability.Shutdown(s.provider, observability.DefaultShutdownTimeout); err != nil {
		s.log.Warn().Err(err).Msg("Failed to shut down observability provider")
	}
}

// newSession loads configuration, applies flag overrides and builds the client.
func newSession(cmd *cobra.Command, opts *GlobalOptions) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(opts.Headers)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)

	provider, err := observability.NewProvider(cfg.Observability, log, observability.WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}

	c, err := client.NewFromConfig(cfg, log)
	if err != nil {
		_ = observability.Shutdown(provider, time.Second)
		return nil, err
	}

	return &session{client: c, headers: headers, provider: provider, log: log}, nil
}

func loadConfig(cmd *cobra.Command, opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("pool-size") {
		cfg.Pool.Size = opts.PoolSize
	}
	if flags.Changed("pool-timeout") {
		cfg.Pool.Timeout = opts.PoolTimeout
	}
	if flags.Changed("read-timeout") {
		cfg.Timeout.Read = opts.ReadTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.Timeout.Write = opts.WriteTimeout
	}
	if flags.Changed("engine") {
		cfg.Transport.Engine = opts.Engine
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseHeaders turns "Name: Value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: Value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
