// Package client provides a pooled HTTP client with a fixed retry policy.
//
// Every request borrows one handle from a bounded pool, performs a single
// transaction on it and returns it, whatever the outcome. The pool is built
// lazily on first use from the client's Settings.
//
// Timeouts
//   - HEAD and GET use the read timeout (default 5s).
//   - POST, multipart POST, PUT and DELETE use the write timeout (default 30s).
//
// Retries
//   - Up to RetryPolicy.Attempts attempts (default 3), waiting
//     RetryPolicy.Wait (default 200ms) before each retry. The wait is fixed.
//   - Transport errors and 5xx and 3xx responses are retried.
//   - 2xx and 4xx responses are returned at once.
//   - Pool timeouts, validation errors and caller cancellation are never retried.
//   - The last attempt's outcome is always returned.
//
// Transport failures reset the handle before it goes back to the pool, so the
// next borrower never inherits a broken connection.
//
// Non-2xx responses are not errors. Check Response.Success and
// Response.Failure instead.
package client
