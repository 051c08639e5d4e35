package client

import (
	"context"
	"errors"

	"github.com/gaborage/pooledhttp/pool"
	"github.com/gaborage/pooledhttp/transport"
)

// perform runs a single attempt on a pooled handle. A transport failure resets
// the handle before it is returned to the pool.
// A pool shut down by Reset or Disconnect between lookup and acquire is
// replaced once and the acquire repeated on the new pool.
func (c *Client) perform(ctx context.Context, req transport.Request, attempt int) (*Response, error) {
	p, err := c.ConnectionPool(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.performOn(ctx, p, req, attempt)
	if !errors.Is(err, pool.ErrClosed) {
		return resp, err
	}

	c.logger.Debug().Int("attempt", attempt).Msg("Connection pool closed during acquire, retrying on a new pool")
	c.discardPool(p)
	if p, err = c.ConnectionPool(ctx); err != nil {
		return nil, err
	}
	return c.performOn(ctx, p, req, attempt)
}

func (c *Client) performOn(ctx context.Context, p *pool.Pool, req transport.Request, attempt int) (*Response, error) {
	var resp *Response
	err := p.With(ctx, func(h transport.Handle) error {
		h.Configure(req)
		if err := h.Perform(ctx); err != nil {
			h.Reset()
			return &TransportError{Verb: req.Verb, URL: req.URL, Attempt: attempt, Err: err}
		}
		resp = NewResponse(h.Status(), h.HeaderBlock(), h.Body())
		return nil
	})
	if err != nil {
		return nil, asPoolError(err)
	}
	return resp, nil
}
