// Package fetch performs rate-limited HTTP GETs with bounded retries.
//
// # Components
//
//   - DomainRateLimiter: per-host request spacing, shared by every fetch in
//     a process run. It is explicit, injectable state so tests can create
//     independent limiters and concurrent crawls stay isolated.
//   - Fetcher: a single-GET client with a retry policy for transient
//     failures (429/5xx and connection errors) and linear backoff.
//
// # Failure taxonomy
//
// A fetch ends in exactly one of three ways:
//
//   - a Response, for any HTTP status that was either successful, fatal
//     (e.g. 404, never retried), or transient but still failing after the
//     last attempt;
//   - an error wrapping ErrTimeout, when connection-level failures persist
//     through the final attempt; callers count these separately from HTTP
//     status failures;
//   - a context error, when the caller cancels.
//
// The backoff delay is a pure function of the attempt number, so the policy
// is testable without real network calls.
package fetch
