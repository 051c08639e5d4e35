package testing

import "time"

// Logger Constants
// These constants define common logger configurations used across test files.
const (
	// TestLoggerLevelDebug is the debug log level used in most tests
	TestLoggerLevelDebug = "debug"
	// TestLoggerLevelError is the error log level for tests requiring minimal output
	TestLoggerLevelError = "error"
	// TestLoggerLevelDisabled completely disables logging in tests
	TestLoggerLevelDisabled = "disabled"
)

// Timing Constants
// Short durations that keep pool and retry tests fast.
const (
	// TestAcquireTimeout is a pool acquire timeout short enough to exercise exhaustion.
	TestAcquireTimeout = 50 * time.Millisecond
	// TestRetryWait replaces the production retry wait in tests.
	TestRetryWait = time.Millisecond
	// TestServiceName is used as the service name in observability tests.
	TestServiceName = "test-service"
)
