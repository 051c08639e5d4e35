package client

import (
	"context"
	"errors"
	"time"

	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/trace"
	"github.com/gaborage/pooledhttp/transport"
)

const (
	// DefaultRetries is the total number of attempts per request, the first included
	DefaultRetries = 3
	// DefaultRetryWait is the fixed pause before every attempt after the first
	DefaultRetryWait = 200 * time.Millisecond
)

// RetryPolicy bounds how often and how fast a request is repeated.
// Zero fields fall back to DefaultRetries and DefaultRetryWait.
type RetryPolicy struct {
	Attempts int
	Wait     time.Duration
}

// DefaultRetryPolicy returns three attempts with a 200ms wait.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultRetries, Wait: DefaultRetryWait}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetries
	}
	if p.Wait <= 0 {
		p.Wait = DefaultRetryWait
	}
	return p
}

// isFinal reports whether a response ends the retry loop early.
func isFinal(resp *Response) bool {
	return resp.Success() || (resp.Failure() && resp.Status() < 500)
}

// performWithRetry runs req until it yields a final response, a terminal error or
// the attempts run out. The last attempt's outcome is always returned.
func (c *Client) performWithRetry(ctx context.Context, req transport.Request) (*Response, error) {
	policy := c.retry.withDefaults()
	start := time.Now()

	ctx, tr := c.tracker.StartRequest(ctx, string(req.Verb), req.URL)
	requestID := trace.InjectHeaders(ctx, req.Headers, c.requestIDHeader)

	log := c.logger.WithFields(map[string]any{
		"method":     string(req.Verb),
		"url":        req.URL,
		"request_id": requestID,
	})

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, policy.Wait); err != nil {
				tr.End(0, attempt-1, err)
				return nil, err
			}
		}
		canRetry := attempt < policy.Attempts

		log.Debug().Int("attempt", attempt).Msg("Sending request")
		resp, err := c.perform(ctx, req, attempt)
		if err != nil {
			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				log.Error().Err(err).Int("attempt", attempt).Msg("Request failed before reaching the transport")
				tr.End(0, attempt, err)
				return nil, err
			}

			tr.Attempt(attempt, 0, err)
			// An oversized body would be oversized again on the next attempt.
			if !canRetry || ctx.Err() != nil || errors.Is(err, transport.ErrBodyTooLarge) {
				log.Error().Err(err).Int("attempt", attempt).Msg("Request failed")
				tr.End(0, attempt, err)
				return nil, err
			}

			log.Warn().Err(err).Int("attempt", attempt).Dur("wait", policy.Wait).Msg("Transport error, retrying")
			tr.Retry("transport")
			continue
		}

		tr.Attempt(attempt, resp.Status(), nil)
		if !canRetry || isFinal(resp) {
			resp.stats = Stats{Elapsed: time.Since(start), Attempt: attempt}
			logResponse(log, resp)
			tr.End(resp.Status(), attempt, nil)
			return resp, nil
		}

		log.Warn().Int("status", resp.Status()).Int("attempt", attempt).Dur("wait", policy.Wait).Msg("Retryable status, retrying")
		tr.Retry("status")
	}
}

func logResponse(log logger.Logger, resp *Response) {
	log.Info().
		Str("direction", "inbound").
		Int("status", resp.Status()).
		Dur("elapsed", resp.stats.Elapsed).
		Int("attempt", resp.stats.Attempt).
		Msg("HTTP client response")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
