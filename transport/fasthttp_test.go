package transport

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const inMemoryBase = "http://inmemory.test"

// newInMemoryFastServer serves handler over an in-memory listener and returns
// options whose Dial reaches it.
func newInMemoryFastServer(t *testing.T, handler fasthttp.RequestHandler) FastHTTPOptions {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = ln.Close()
	})

	return FastHTTPOptions{
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func fastEchoHandler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/slow":
		time.Sleep(500 * time.Millisecond)
		ctx.SetBodyString("slow")
	case "/missing":
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("not found")
	default:
		ctx.Response.Header.Set("X-Method", string(ctx.Method()))
		ctx.Response.Header.Set("X-Request-Content-Type", string(ctx.Request.Header.ContentType()))
		ctx.Response.Header.Set("X-Custom", string(ctx.Request.Header.Peek("X-Custom")))
		ctx.SetContentType("text/plain")
		ctx.SetBody(ctx.PostBody())
	}
}

func TestFastHTTPHandleGet(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)
	defer h.Close()

	h.Configure(Request{
		Verb:    VerbGet,
		URL:     inMemoryBase + "/echo",
		Headers: map[string]string{"X-Custom": "value"},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, h.Perform(context.Background()))

	assert.Equal(t, http.StatusOK, h.Status())
	block := h.HeaderBlock()
	assert.True(t, strings.HasPrefix(block, "HTTP/1.1 200 OK\r\n"), block)
	assert.Contains(t, block, "X-Method: GET\r\n")
	assert.Contains(t, block, "X-Custom: value\r\n")
	assert.True(t, strings.HasSuffix(block, "\r\n\r\n"))
}

func TestFastHTTPHandlePostFields(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)
	defer h.Close()

	h.Configure(Request{
		Verb: VerbPost,
		URL:  inMemoryBase + "/echo",
		Body: &Body{Fields: []Field{{Name: "x", Content: "27"}}},
	})
	require.NoError(t, h.Perform(context.Background()))

	assert.Equal(t, "x=27", string(h.Body()))
	assert.Contains(t, h.HeaderBlock(), "X-Request-Content-Type: "+formContentType+"\r\n")
}

func TestFastHTTPHandlePutRaw(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)
	defer h.Close()

	h.Configure(Request{
		Verb:    VerbPut,
		URL:     inMemoryBase + "/echo",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    &Body{Raw: []byte(`{"x":27}`)},
	})
	require.NoError(t, h.Perform(context.Background()))

	assert.Equal(t, `{"x":27}`, string(h.Body()))
	assert.Contains(t, h.HeaderBlock(), "X-Method: PUT\r\n")
	assert.Contains(t, h.HeaderBlock(), "X-Request-Content-Type: application/json\r\n")
}

func TestFastHTTPHandleStatusIsNotAnError(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)
	defer h.Close()

	h.Configure(Request{Verb: VerbGet, URL: inMemoryBase + "/missing"})
	require.NoError(t, h.Perform(context.Background()))
	assert.Equal(t, http.StatusNotFound, h.Status())
	assert.Equal(t, "not found", string(h.Body()))
}

func TestFastHTTPHandleMaxResponseBytes(t *testing.T) {
	payload := []byte("abcdefgh")

	t.Run("over limit fails", func(t *testing.T) {
		opts := newInMemoryFastServer(t, fastEchoHandler)
		opts.MaxResponseBytes = 4
		h := NewFastHTTPHandle(opts)
		defer h.Close()

		h.Configure(Request{Verb: VerbPut, URL: inMemoryBase + "/echo", Body: &Body{Raw: payload}})
		err := h.Perform(context.Background())
		require.ErrorIs(t, err, ErrBodyTooLarge)
		assert.Zero(t, h.Status())
		assert.Empty(t, h.Body())
	})

	t.Run("at limit succeeds", func(t *testing.T) {
		opts := newInMemoryFastServer(t, fastEchoHandler)
		opts.MaxResponseBytes = len(payload)
		h := NewFastHTTPHandle(opts)
		defer h.Close()

		h.Configure(Request{Verb: VerbPut, URL: inMemoryBase + "/echo", Body: &Body{Raw: payload}})
		require.NoError(t, h.Perform(context.Background()))
		assert.Equal(t, payload, h.Body())
	})
}

func TestFastHTTPHandleTimeout(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)
	defer h.Close()

	h.Configure(Request{Verb: VerbGet, URL: inMemoryBase + "/slow", Timeout: 20 * time.Millisecond})
	err := h.Perform(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fasthttp.ErrTimeout)
	assert.Zero(t, h.Status())
}

func TestFastHTTPHandleCanceledContext(t *testing.T) {
	h := NewFastHTTPHandle(FastHTTPOptions{})
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.Configure(Request{Verb: VerbGet, URL: inMemoryBase})
	assert.ErrorIs(t, h.Perform(ctx), context.Canceled)
}

func TestFastHTTPHandleResetAndClose(t *testing.T) {
	opts := newInMemoryFastServer(t, fastEchoHandler)
	h := NewFastHTTPHandle(opts)

	h.Configure(Request{Verb: VerbGet, URL: inMemoryBase + "/echo"})
	require.NoError(t, h.Perform(context.Background()))

	h.Reset()
	assert.Equal(t, 1, h.Resets())
	assert.Zero(t, h.Status())
	assert.ErrorIs(t, h.Perform(context.Background()), ErrNotConfigured)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	h.Configure(Request{Verb: VerbGet, URL: inMemoryBase + "/echo"})
	assert.ErrorIs(t, h.Perform(context.Background()), ErrClosed)
}

func TestEffectiveTimeout(t *testing.T) {
	assert.Equal(t, time.Second, effectiveTimeout(context.Background(), time.Second))
	assert.Zero(t, effectiveTimeout(context.Background(), 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	assert.Equal(t, time.Second, effectiveTimeout(ctx, time.Second))

	got := effectiveTimeout(ctx, 0)
	assert.Greater(t, got, 59*time.Minute)

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	assert.Equal(t, time.Nanosecond, effectiveTimeout(expired, time.Second))
}
