package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/pooledhttp/internal/testutil"
	"github.com/gaborage/pooledhttp/logger"
	"github.com/gaborage/pooledhttp/pool"
	testconsts "github.com/gaborage/pooledhttp/testing"
	"github.com/gaborage/pooledhttp/testing/mocks"
	"github.com/gaborage/pooledhttp/transport"
)

const okBlock = "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n"

// newMockClient builds a client over a single mock handle with a tiny retry wait.
func newMockClient(h *mocks.MockHandle) *Client {
	return NewBuilder(logger.Nop()).
		WithTransport(mocks.HandleFactory(h)).
		WithRetries(DefaultRetries, testconsts.TestRetryWait).
		WithPoolTimeout(testconsts.TestAcquireTimeout).
		Build()
}

func newHandle() *mocks.MockHandle {
	h := &mocks.MockHandle{}
	h.ExpectConfigure()
	h.ExpectClose(nil)
	return h
}

func finish(t *testing.T, c *Client, h *mocks.MockHandle) {
	t.Helper()
	c.Disconnect()
	h.AssertExpectations(t)
	h.AssertNumberOfCalls(t, "Close", 1)
}

func TestRetryPolicyDefaults(t *testing.T) {
	assert.Equal(t, RetryPolicy{Attempts: 3, Wait: 200 * time.Millisecond}, DefaultRetryPolicy())
	assert.Equal(t, DefaultRetryPolicy(), RetryPolicy{}.withDefaults())
	assert.Equal(t, RetryPolicy{Attempts: 5, Wait: time.Second}, RetryPolicy{Attempts: 5, Wait: time.Second}.withDefaults())
}

func TestIsFinal(t *testing.T) {
	assert.True(t, isFinal(NewResponse(200, "", nil)))
	assert.True(t, isFinal(NewResponse(404, "", nil)))
	assert.True(t, isFinal(NewResponse(499, "", nil)))
	assert.False(t, isFinal(NewResponse(500, "", nil)))
	assert.False(t, isFinal(NewResponse(503, "", nil)))
	assert.False(t, isFinal(NewResponse(302, "", nil)))
}

func TestRetriesServerErrorsUntilSuccess(t *testing.T) {
	h := newHandle()
	h.ExpectResponse(500, "HTTP/1.1 500 Internal Server Error\r\n\r\n", nil)
	h.ExpectResponse(500, "HTTP/1.1 500 Internal Server Error\r\n\r\n", nil)
	h.ExpectResponse(200, okBlock, []byte("ok"))
	c := newMockClient(h)

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Status())
	assert.True(t, resp.Success())
	assert.Equal(t, "ok", string(resp.Body()))
	assert.Equal(t, 3, resp.Stats().Attempt)
	assert.GreaterOrEqual(t, resp.Stats().Elapsed, 2*testconsts.TestRetryWait)
	h.AssertNumberOfCalls(t, "Perform", 3)
	finish(t, c, h)
}

func TestClientErrorIsFinal(t *testing.T) {
	h := newHandle()
	h.ExpectResponse(404, "HTTP/1.1 404 Not Found\r\n\r\n", []byte("missing"))
	c := newMockClient(h)

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)

	assert.Equal(t, 404, resp.Status())
	assert.True(t, resp.Failure())
	assert.Equal(t, 1, resp.Stats().Attempt)
	h.AssertNumberOfCalls(t, "Perform", 1)
	finish(t, c, h)
}

func TestLastAttemptReturnsServerError(t *testing.T) {
	h := newHandle()
	for range DefaultRetries {
		h.ExpectResponse(503, "HTTP/1.1 503 Service Unavailable\r\n\r\n", nil)
	}
	c := newMockClient(h)

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)

	assert.Equal(t, 503, resp.Status())
	assert.Equal(t, 3, resp.Stats().Attempt)
	h.AssertNumberOfCalls(t, "Perform", 3)
	finish(t, c, h)
}

func TestRedirectIsRetried(t *testing.T) {
	h := newHandle()
	h.ExpectResponse(302, "HTTP/1.1 302 Found\r\nLocation: /x\r\n\r\n", nil)
	h.ExpectResponse(200, okBlock, nil)
	c := newMockClient(h)

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status())
	h.AssertNumberOfCalls(t, "Perform", 2)
	finish(t, c, h)
}

func TestTransportErrorOnEveryAttempt(t *testing.T) {
	cause := errors.New(testutil.TestConnectionRefused)
	h := newHandle()
	for range DefaultRetries {
		h.ExpectTransportError(cause)
	}
	c := newMockClient(h)

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.Error(t, err)
	assert.Nil(t, resp)

	assert.ErrorIs(t, err, cause)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 3, transportErr.Attempt)
	assert.Equal(t, testutil.TestURL, transportErr.URL)
	h.AssertNumberOfCalls(t, "Perform", 3)
	h.AssertNumberOfCalls(t, "Reset", 3)
	finish(t, c, h)
}

func TestOversizedBodyIsNotRetried(t *testing.T) {
	h := newHandle()
	h.ExpectTransportError(transport.ErrBodyTooLarge)
	c := newMockClient(h)

	_, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.ErrorIs(t, err, transport.ErrBodyTooLarge)
	assert.True(t, IsErrorType(err, TransportErrorType))
	h.AssertNumberOfCalls(t, "Perform", 1)
	h.AssertNumberOfCalls(t, "Reset", 1)
	finish(t, c, h)
}

func TestTransportErrorThenSuccess(t *testing.T) {
	h := newHandle()
	h.ExpectTransportError(errors.New(testutil.TestConnectionRefused))
	h.ExpectResponse(200, okBlock, []byte("ok"))
	c := newMockClient(h)

	resp, err := c.Post(context.Background(), testutil.TestURL, map[string]string{"x": "27"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status())
	assert.Equal(t, 2, resp.Stats().Attempt)
	h.AssertNumberOfCalls(t, "Perform", 2)
	h.AssertNumberOfCalls(t, "Reset", 1)
	finish(t, c, h)
}

func TestResetHappensBeforeRelease(t *testing.T) {
	var c *Client
	h := &mocks.MockHandle{}
	h.ExpectConfigure()
	h.ExpectClose(nil)
	h.On("Perform", mock.Anything).Return(errors.New(testutil.TestConnectionRefused)).Once()
	h.On("Reset").Run(func(mock.Arguments) {
		p, err := c.ConnectionPool(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, p.Stats().Acquired, "handle must still be leased while it is reset")
	}).Return().Once()
	h.ExpectResponse(200, okBlock, nil)
	c = newMockClient(h)

	_, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)

	p, err := c.ConnectionPool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stats().Acquired)
	finish(t, c, h)
}

func TestCustomRetryPolicy(t *testing.T) {
	h := newHandle()
	h.ExpectResponse(500, "HTTP/1.1 500 Internal Server Error\r\n\r\n", nil)
	c := NewBuilder(logger.Nop()).
		WithTransport(mocks.HandleFactory(h)).
		WithRetries(1, testconsts.TestRetryWait).
		Build()

	resp, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.Status())
	h.AssertNumberOfCalls(t, "Perform", 1)
	finish(t, c, h)
}

func TestCancellationDuringRetryWait(t *testing.T) {
	h := newHandle()
	h.ExpectResponse(500, "HTTP/1.1 500 Internal Server Error\r\n\r\n", nil)
	c := NewBuilder(logger.Nop()).
		WithTransport(mocks.HandleFactory(h)).
		WithRetries(3, time.Hour).
		Build()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, testutil.TestURL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	h.AssertNumberOfCalls(t, "Perform", 1)
	finish(t, c, h)
}

func TestCanceledTransportErrorIsNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := newHandle()
	h.On("Perform", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled).Once()
	h.On("Reset").Return().Once()
	c := newMockClient(h)

	_, err := c.Get(ctx, testutil.TestURL, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsErrorType(err, TransportErrorType))
	h.AssertNumberOfCalls(t, "Perform", 1)
	finish(t, c, h)
}

func TestPoolTimeoutIsNotRetried(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	h := newHandle()
	h.On("Perform", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()
	h.On("Status").Return(http.StatusOK).Once()
	h.On("HeaderBlock").Return(okBlock).Once()
	h.On("Body").Return([]byte(nil)).Once()
	c := newMockClient(h)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.Get(context.Background(), testutil.TestURL, nil)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status())
	}()
	<-started

	start := time.Now()
	_, err := c.Get(context.Background(), testutil.TestURL, nil)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, PoolTimeoutErrorType))
	assert.ErrorIs(t, err, pool.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	close(release)
	wg.Wait()
	h.AssertNumberOfCalls(t, "Perform", 1)
	finish(t, c, h)
}

func TestFactoryErrorIsTerminal(t *testing.T) {
	boom := errors.New("cannot build handle")
	c := NewBuilder(logger.Nop()).
		WithTransport(mocks.FailingFactory(boom)).
		WithRetries(3, testconsts.TestRetryWait).
		Build()
	defer c.Disconnect()

	_, err := c.Get(context.Background(), testutil.TestURL, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsErrorType(err, TransportErrorType))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
