package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gaborage/pooledhttp/client"
	"github.com/gaborage/pooledhttp/pool"
)

// BenchOptions holds options for the bench command
type BenchOptions struct {
	Requests    int
	Concurrency int
	Rate        float64
}

// BenchResult summarizes a bench run
type BenchResult struct {
	Requests  int
	Succeeded int64
	Failed    int64
	Elapsed   time.Duration
	Pool      pool.Stats
}

// NewBenchCommand creates the bench command
func NewBenchCommand(opts *GlobalOptions) *cobra.Command {
	benchOpts := &BenchOptions{}

	cmd := &cobra.Command{
		Use:   "bench URL",
		Short: "Fire concurrent GET requests through one pooled client",
		Long: `Fire --requests GET requests from --concurrency goroutines sharing one
client, optionally capped at --rate requests per second. A request fails when
it returns an error or a 4xx/5xx response.`,
		Example: `  pooledhttp bench https://example.com/health --requests 500 --concurrency 20 --pool-size 8 --rate 100`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateBenchOptions(benchOpts); err != nil {
				return err
			}

			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := runBench(commandContext(cmd), s.client, args[0], s.headers, benchOpts)
			if err != nil {
				return err
			}
			return printBenchResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVarP(&benchOpts.Requests, "requests", "n", 100, "Total number of requests")
	cmd.Flags().IntVarP(&benchOpts.Concurrency, "concurrency", "C", 10, "Number of concurrent workers")
	cmd.Flags().Float64Var(&benchOpts.Rate, "rate", 0, "Maximum requests per second (0 = unlimited)")

	return cmd
}

func validateBenchOptions(opts *BenchOptions) error {
	if opts.Requests < 1 {
		return errors.New("requests must be at least 1")
	}
	if opts.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if opts.Rate < 0 {
		return errors.New("rate cannot be negative")
	}
	return nil
}

// runBench issues the requests and waits for all of them. Individual request
// failures are counted, not returned; only caller cancellation aborts the run.
func runBench(ctx context.Context, c client.Requester, url string, headers map[string]string, opts *BenchOptions) (*BenchResult, error) {
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	start := time.Now()
	for range opts.Requests {
		if limiter != nil {
			if err := limiter.Wait(gctx); err != nil {
				break
			}
		}
		g.Go(func() error {
			resp, err := c.Get(gctx, url, headers)
			if err != nil || resp.Failure() {
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BenchResult{
		Requests:  opts.Requests,
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		Elapsed:   time.Since(start),
	}
	if pc, ok := c.(*client.Client); ok {
		if p, err := pc.ConnectionPool(ctx); err == nil {
			result.Pool = p.Stats()
		}
	}
	return result, nil
}

func printBenchResult(w io.Writer, r *BenchResult) error {
	_, err := fmt.Fprintf(w,
		"requests:  %d\nsucceeded: %d\nfailed:    %d\nelapsed:   %s\npool:      max=%d total=%d idle=%d acquires=%d empty_acquires=%d\n",
		r.Requests, r.Succeeded, r.Failed, r.Elapsed.Round(time.Millisecond),
		r.Pool.MaxSize, r.Pool.Total, r.Pool.Idle, r.Pool.AcquireCount, r.Pool.EmptyAcquireCount,
	)
	return err
}
