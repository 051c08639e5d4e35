// Package testutil provides shared constants, an HTTP test server and
// in-memory OpenTelemetry providers for tests across the module.
package testutil

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"

	// TestURL is a placeholder URL for tests that never reach the network.
	TestURL = "http://stub.invalid/resource"
)

// Reference response header block: a status line, three headers (one value with
// a colon-free semicolon list, one with colons) and the terminating blank line.
const (
	TestHeaderBlock = "HTTP/1.1 200 OK\r\n" +
		"Content-Length: 19\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Date: Mon, 02 Jun 2014 14:04:16 GMT\r\n" +
		"\r\n"

	TestContentLength = "19"
	TestContentType   = "text/plain; charset=utf-8"
	TestDate          = "Mon, 02 Jun 2014 14:04:16 GMT"
)
