package client

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// Stats describes how a response was obtained.
type Stats struct {
	// Elapsed covers every attempt and retry wait.
	Elapsed time.Duration
	// Attempt is the 1-based attempt that produced the response.
	Attempt int
}

// Response is the outcome of one HTTP transaction: the status code, the raw
// header block exactly as received and the body.
// It is safe for concurrent use.
type Response struct {
	status      int
	headerBlock string
	body        []byte
	stats       Stats

	headersOnce sync.Once
	headers     map[string]string
	lookup      map[string]string
}

// NewResponse builds a Response from the raw parts of a transaction.
func NewResponse(status int, headerBlock string, body []byte) *Response {
	return &Response{status: status, headerBlock: headerBlock, body: body}
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// HeaderBlock returns the unparsed header block, status line included.
func (r *Response) HeaderBlock() string {
	return r.headerBlock
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// Stats returns timing and attempt information.
func (r *Response) Stats() Stats {
	return r.stats
}

// Success reports a status of 299 or below.
func (r *Response) Success() bool {
	return r.status <= 299
}

// Failure reports a status of 400 or above. Redirects are neither success nor failure.
func (r *Response) Failure() bool {
	return r.status >= 400
}

// Headers parses the header block on first call and returns the same map afterwards.
// The status line is dropped, each remaining line is split on its first colon and both
// sides are trimmed. A repeated name keeps its last value.
// The map is shared by every caller and must be treated as read-only.
func (r *Response) Headers() map[string]string {
	r.parseHeaders()
	return r.headers
}

// Header returns a single parsed header value; the name must match exactly.
// Writes to the map returned by Headers do not affect it.
func (r *Response) Header(name string) string {
	r.parseHeaders()
	return r.lookup[name]
}

func (r *Response) parseHeaders() {
	r.headersOnce.Do(func() {
		r.headers = parseHeaderBlock(r.headerBlock)
		r.lookup = maps.Clone(r.headers)
	})
}

func parseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)

	lines := strings.Split(block, "\r\n")
	if len(lines) == 0 {
		return headers
	}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, _ := strings.Cut(line, ":")
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers
}
