package client

import (
	"context"
	"time"

	"github.com/gaborage/pooledhttp/pool"
)

const (
	// DefaultPoolSize is the number of pooled handles when Settings.PoolSize is unset
	DefaultPoolSize = pool.DefaultSize
	// DefaultPoolTimeout bounds waiting for a handle when Settings.PoolTimeout is unset
	DefaultPoolTimeout = pool.DefaultAcquireTimeout
	// DefaultReadTimeout applies to HEAD and GET when Settings.ReadTimeout is unset
	DefaultReadTimeout = 5 * time.Second
	// DefaultWriteTimeout applies to POST, PUT and DELETE when Settings.WriteTimeout is unset
	DefaultWriteTimeout = 30 * time.Second
)

// Settings are the client's tunables. A zero field is unset and falls back to
// the matching Default constant when read. A negative read or write timeout is
// treated as unset; a negative pool size or pool timeout fails pool validation.
type Settings struct {
	PoolSize     int
	PoolTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WithDefaults returns a copy with every unset field replaced by its default.
func (s Settings) WithDefaults() Settings {
	if s.PoolSize == 0 {
		s.PoolSize = DefaultPoolSize
	}
	if s.PoolTimeout == 0 {
		s.PoolTimeout = DefaultPoolTimeout
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	return s
}

// Configure lets fn adjust the settings and returns the client for chaining.
// Pool size and pool timeout take effect the next time a pool is built, that
// is on first use or after Disconnect or Reset.
func (c *Client) Configure(fn func(*Settings)) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.settings)
	return c
}

// Settings returns the current settings as set, without defaults applied.
func (c *Client) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Reset clears every setting and discards the pool. The next request builds a
// fresh pool from the defaults.
func (c *Client) Reset() *Client {
	c.mu.Lock()
	c.settings = Settings{}
	p, unregister := c.detachPool()
	c.mu.Unlock()

	c.shutdownPool(p, unregister)
	return c
}

// Disconnect shuts the pool down, closing every handle once outstanding
// requests finish, and keeps the settings. The next request builds a new pool.
func (c *Client) Disconnect() {
	c.mu.Lock()
	p, unregister := c.detachPool()
	c.mu.Unlock()

	c.shutdownPool(p, unregister)
}

// ConnectionPool returns the client's pool, building it on first call.
// Concurrent first calls build exactly one pool.
func (c *Client) ConnectionPool(ctx context.Context) (*pool.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fast path: pool already exists
	c.mu.RLock()
	p := c.pool
	c.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	v, err, _ := c.sfg.Do("pool", func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()

		// Double-check after acquiring the lock
		if c.pool != nil {
			return c.pool, nil
		}

		s := c.settings.WithDefaults()
		p, err := pool.New(pool.Config{Size: s.PoolSize, AcquireTimeout: s.PoolTimeout}, c.factory, c.logger)
		if err != nil {
			return nil, err
		}
		c.pool = p
		c.unregisterPool = c.tracker.RegisterPoolMetrics(p, c.engine)

		c.logger.Info().
			Int("size", s.PoolSize).
			Dur("timeout", s.PoolTimeout).
			Str("engine", c.engine).
			Msg("Created connection pool")
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pool.Pool), nil
}

// detachPool must be called with c.mu held.
func (c *Client) detachPool() (*pool.Pool, func()) {
	p, unregister := c.pool, c.unregisterPool
	c.pool, c.unregisterPool = nil, nil
	return p, unregister
}

// discardPool forgets p, which is already shut down, if it is still the client's pool.
func (c *Client) discardPool(p *pool.Pool) {
	c.mu.Lock()
	if c.pool != p {
		c.mu.Unlock()
		return
	}
	_, unregister := c.detachPool()
	c.mu.Unlock()

	if unregister != nil {
		unregister()
	}
}

func (c *Client) shutdownPool(p *pool.Pool, unregister func()) {
	if unregister != nil {
		unregister()
	}
	if p == nil {
		return
	}
	p.Shutdown()
	c.logger.Info().Str("engine", c.engine).Msg("Connection pool disconnected")
}
