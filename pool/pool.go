// Package pool bounds how many transport handles exist and lends them out
// one caller at a time.
//
// Handles are created lazily by the factory, up to Config.Size. A caller that
// finds every handle lent out waits at most Config.AcquireTimeout. Shutdown
// waits for outstanding leases, then closes every handle exactly once.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jackc/puddle/v2"

	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/transport"
)

const (
	// DefaultSize is the number of handles a pool holds when unconfigured.
	DefaultSize = 1
	// DefaultAcquireTimeout bounds how long Acquire waits when unconfigured.
	DefaultAcquireTimeout = 5 * time.Second
	// MaxSize is the largest pool the underlying resource pool can address.
	MaxSize = math.MaxInt32
)

// Config sizes a pool.
type Config struct {
	Size           int
	AcquireTimeout time.Duration
}

// DefaultConfig returns a single-handle pool with a 5s acquire timeout.
func DefaultConfig() Config {
	return Config{Size: DefaultSize, AcquireTimeout: DefaultAcquireTimeout}
}

// Validate checks that the pool holds between 1 and MaxSize handles and that waiting is bounded.
func (c Config) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: size must be at least 1, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Size > MaxSize {
		return fmt.Errorf("%w: size must be at most %d, got %d", ErrInvalidConfig, MaxSize, c.Size)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("%w: acquire timeout must be positive, got %s", ErrInvalidConfig, c.AcquireTimeout)
	}
	return nil
}

// Stats is a point-in-time snapshot of pool usage.
type Stats struct {
	MaxSize              int
	Total                int
	Acquired             int
	Idle                 int
	AcquireCount         int64
	CanceledAcquireCount int64
	EmptyAcquireCount    int64
	AcquireDuration      time.Duration
}

// Pool is a bounded set of transport handles.
type Pool struct {
	cfg    Config
	inner  *puddle.Pool[transport.Handle]
	logger logger.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// New creates an empty pool. No handle is constructed until the first Acquire.
func New(cfg Config, factory transport.Factory, log logger.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: factory is required", ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Pool{cfg: cfg, logger: log}

	inner, err := puddle.NewPool(&puddle.Config[transport.Handle]{
		Constructor: func(ctx context.Context) (transport.Handle, error) {
			h, err := factory(ctx)
			if err != nil {
				return nil, err
			}
			p.logger.Debug().Msg("Created transport handle")
			return h, nil
		},
		Destructor: func(h transport.Handle) {
			if err := h.Close(); err != nil {
				p.logger.Warn().Err(err).Msg("Failed to close transport handle")
			}
		},
		MaxSize: int32(cfg.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	p.inner = inner

	return p, nil
}

// Acquire lends out a handle, creating one if the pool is below capacity.
// The returned lease must be released exactly once.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.Closed() {
		return nil, ErrClosed
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	res, err := p.inner.Acquire(acquireCtx)
	if err == nil {
		return &Lease{res: res}, nil
	}

	switch {
	case errors.Is(err, puddle.ErrClosedPool):
		return nil, ErrClosed
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		p.logger.Warn().
			Dur("timeout", p.cfg.AcquireTimeout).
			Int("size", p.cfg.Size).
			Msg("Timed out waiting for a transport handle")
		return nil, &TimeoutError{Timeout: p.cfg.AcquireTimeout, Size: p.cfg.Size}
	default:
		return nil, err
	}
}

// With acquires a handle, passes it to fn and releases it on every exit path.
func (p *Pool) With(ctx context.Context, fn func(transport.Handle) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(lease.Handle())
}

// Shutdown waits for every lent handle to come back, then closes all handles.
// Calling it more than once is harmless.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.inner.Close()
		p.logger.Debug().Int("size", p.cfg.Size).Msg("Connection pool shut down")
	})
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Config returns the configuration the pool was built with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Stats returns current usage figures.
func (p *Pool) Stats() Stats {
	s := p.inner.Stat()
	return Stats{
		MaxSize:              int(s.MaxResources()),
		Total:                int(s.TotalResources()),
		Acquired:             int(s.AcquiredResources()),
		Idle:                 int(s.IdleResources()),
		AcquireCount:         s.AcquireCount(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
		EmptyAcquireCount:    s.EmptyAcquireCount(),
		AcquireDuration:      s.AcquireDuration(),
	}
}

// Lease is exclusive use of one handle until Release.
type Lease struct {
	res  *puddle.Resource[transport.Handle]
	once sync.Once
}

// Handle returns the leased handle.
func (l *Lease) Handle() transport.Handle {
	return l.res.Value()
}

// Release returns the handle to the pool. Only the first call has an effect.
func (l *Lease) Release() {
	l.once.Do(l.res.Release)
}
