package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/pooledhttp/client"
	"github.com/gaborage/pooledhttp/internal/testutil"
	testconsts "github.com/gaborage/pooledhttp/testing"
	"github.com/gaborage/pooledhttp/transport"
)

// Test constants to avoid string duplication
const (
	testVersion   = "v1.2.3"
	logLevelQuiet = "--log-level=" + testconsts.TestLoggerLevelDisabled
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(testVersion)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// echoBody extracts and decodes the body part of a printed /echo response.
func echoBody(t *testing.T, out string) testutil.EchoPayload {
	t.Helper()
	_, body, ok := strings.Cut(out, "\n\n")
	require.True(t, ok, "no blank line between headers and body: %q", out)

	var payload testutil.EchoPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)

	assert.Equal(t,
		"pooledhttp version "+testVersion+"\n"+
			"Built with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+"\n",
		out)
}

func TestGetCommand(t *testing.T) {
	srv := testutil.NewServer(t)

	out, _, err := execute(t, "get", srv.Endpoint("/echo"), "-H", "X-Custom: one", logLevelQuiet)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "HTTP/1.1 200 OK", lines[0])
	assert.Contains(t, out, "\n"+testutil.EchoHeader+": 1\n")

	payload := echoBody(t, out)
	assert.Equal(t, http.MethodGet, payload.Method)
	assert.Equal(t, "one", payload.Headers["X-Custom"])
	assert.NotEmpty(t, payload.Headers["X-Request-Id"])
}

func TestHeadersArePrintedSorted(t *testing.T) {
	srv := testutil.NewServer(t)

	out, _, err := execute(t, "head", srv.Endpoint("/status/200"), logLevelQuiet)
	require.NoError(t, err)

	head, _, _ := strings.Cut(out, "\n\n")
	lines := strings.Split(head, "\n")[1:]
	require.NotEmpty(t, lines)
	for i := 1; i < len(lines); i++ {
		assert.LessOrEqual(t, lines[i-1], lines[i])
	}
}

func TestDeleteCommand(t *testing.T) {
	srv := testutil.NewServer(t)

	out, _, err := execute(t, "delete", srv.Endpoint("/echo"), logLevelQuiet)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, echoBody(t, out).Method)
}

func TestPostCommand(t *testing.T) {
	srv := testutil.NewServer(t)

	t.Run("fields", func(t *testing.T) {
		out, _, err := execute(t, "post", srv.Endpoint("/echo"), "--field", "b=2", "--field", "a=1", logLevelQuiet)
		require.NoError(t, err)

		payload := echoBody(t, out)
		assert.Equal(t, "a=1&b=2", payload.Body)
		assert.Equal(t, map[string][]string{"a": {"1"}, "b": {"2"}}, payload.Form)
	})

	t.Run("multipart", func(t *testing.T) {
		out, _, err := execute(t, "post", srv.Endpoint("/echo"), "-F", "x=27", "--multipart", logLevelQuiet)
		require.NoError(t, err)

		payload := echoBody(t, out)
		assert.True(t, strings.HasPrefix(payload.ContentType, "multipart/form-data"))
		assert.Equal(t, map[string][]string{"x": {"27"}}, payload.Form)
	})

	t.Run("raw data", func(t *testing.T) {
		out, _, err := execute(t, "post", srv.Endpoint("/echo"), "-d", `{"x":27}`, "-H", "Content-Type: application/json", logLevelQuiet)
		require.NoError(t, err)

		payload := echoBody(t, out)
		assert.Equal(t, `{"x":27}`, payload.Body)
		assert.Equal(t, "application/json", payload.ContentType)
	})

	t.Run("field and data are exclusive", func(t *testing.T) {
		_, _, err := execute(t, "post", srv.Endpoint("/echo"), "-F", "a=1", "-d", "raw", logLevelQuiet)
		assert.Error(t, err)
	})

	t.Run("malformed field", func(t *testing.T) {
		_, _, err := execute(t, "post", srv.Endpoint("/echo"), "-F", "novalue", logLevelQuiet)
		assert.ErrorContains(t, err, "invalid field")
	})
}

func TestPutCommandReadsFile(t *testing.T) {
	srv := testutil.NewServer(t)
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"doc":1}`), 0o600))

	out, _, err := execute(t, "put", srv.Endpoint("/echo"), "--data", "@"+path, logLevelQuiet)
	require.NoError(t, err)

	payload := echoBody(t, out)
	assert.Equal(t, http.MethodPut, payload.Method)
	assert.Equal(t, `{"doc":1}`, payload.Body)
}

func TestPutCommandRequiresData(t *testing.T) {
	_, _, err := execute(t, "put", testutil.TestURL, logLevelQuiet)
	assert.Error(t, err)
}

func TestFastHTTPEngineFlag(t *testing.T) {
	srv := testutil.NewServer(t)

	out, _, err := execute(t, "get", srv.Endpoint("/echo"), "--engine", "fasthttp", logLevelQuiet)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, echoBody(t, out).Method)
}

func TestInvalidFlagsAreRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown engine", args: []string{"get", testutil.TestURL, "--engine", "curl"}},
		{name: "zero pool size", args: []string{"get", testutil.TestURL, "--pool-size", "0"}},
		{name: "malformed header", args: []string{"get", testutil.TestURL, "-H", "no-colon"}},
		{name: "missing url", args: []string{"get"}},
		{name: "missing config file", args: []string{"get", testutil.TestURL, "--config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append(tt.args, logLevelQuiet)...)
			assert.Error(t, err)
		})
	}
}

func TestConfigFileAndLogging(t *testing.T) {
	srv := testutil.NewServer(t)
	path := filepath.Join(t.TempDir(), "pooledhttp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  headers:
    X-From-Config: yes-please
log:
  level: info
`), 0o600))

	out, stderr, err := execute(t, "get", srv.Endpoint("/echo"), "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "yes-please", echoBody(t, out).Headers["X-From-Config"])
	assert.Contains(t, stderr, "HTTP client response")
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Accept: application/json", "X-Time: 12:30", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":  "application/json",
		"X-Time":  "12:30",
		"X-Empty": "",
	}, headers)

	_, err = parseHeaders([]string{": value"})
	assert.Error(t, err)
}

func TestPostData(t *testing.T) {
	data, err := postData(&PostOptions{})
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = postData(&PostOptions{Fields: []string{"a=1", "b=x=y"}})
	require.NoError(t, err)
	assert.Equal(t, []transport.Field{{Name: "a", Content: "1"}, {Name: "b", Content: "x=y"}}, data)

	data, err = postData(&PostOptions{Data: "raw"})
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)

	_, err = readData("@/does/not/exist")
	assert.Error(t, err)
}

func TestPrintResponseWithoutHeaderBlock(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, client.NewResponse(204, "", nil)))
	assert.Equal(t, "HTTP 204\n\n", buf.String())
}

func TestBenchCommand(t *testing.T) {
	srv := testutil.NewServer(t)

	out, _, err := execute(t, "bench", srv.Endpoint("/status/200"),
		"--requests", "20", "--concurrency", "4", "--pool-size", "2", logLevelQuiet)
	require.NoError(t, err)

	assert.Contains(t, out, "requests:  20\n")
	assert.Contains(t, out, "succeeded: 20\n")
	assert.Contains(t, out, "failed:    0\n")
	assert.Contains(t, out, "max=2")
	assert.Equal(t, 20, srv.Calls("/status/200"))
}

func TestRunBenchCountsFailures(t *testing.T) {
	srv := testutil.NewServer(t)
	c := client.NewBuilder(nil).WithPoolSize(2).Build()
	defer c.Disconnect()

	result, err := runBench(context.Background(), c, srv.Endpoint("/status/404"), nil,
		&BenchOptions{Requests: 6, Concurrency: 3})
	require.NoError(t, err)

	assert.Equal(t, 6, result.Requests)
	assert.Equal(t, int64(0), result.Succeeded)
	assert.Equal(t, int64(6), result.Failed)
	assert.Equal(t, 2, result.Pool.MaxSize)
	assert.Equal(t, 6, srv.Calls("/status/404"), "4xx responses are not retried")
}

func TestRunBenchRateLimit(t *testing.T) {
	srv := testutil.NewServer(t)
	c := client.NewBuilder(nil).WithPoolSize(2).Build()
	defer c.Disconnect()

	start := time.Now()
	result, err := runBench(context.Background(), c, srv.Endpoint("/status/200"), nil,
		&BenchOptions{Requests: 5, Concurrency: 5, Rate: 50})
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.Succeeded)
	// Burst 1 at 50/s spaces five requests at least four intervals apart.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRunBenchCanceled(t *testing.T) {
	c := client.NewBuilder(nil).Build()
	defer c.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runBench(ctx, c, testutil.TestURL, nil, &BenchOptions{Requests: 3, Concurrency: 1, Rate: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateBenchOptions(t *testing.T) {
	assert.NoError(t, validateBenchOptions(&BenchOptions{Requests: 1, Concurrency: 1}))
	assert.Error(t, validateBenchOptions(&BenchOptions{Requests: 0, Concurrency: 1}))
	assert.Error(t, validateBenchOptions(&BenchOptions{Requests: 1, Concurrency: 0}))
	assert.Error(t, validateBenchOptions(&BenchOptions{Requests: 1, Concurrency: 1, Rate: -1}))
}
