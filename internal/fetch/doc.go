// Package fetch performs forum page downloads with jittered retry and a
// process-wide circuit breaker.
//
// A Fetcher retries a failed GET (non-2xx status, empty body or unparsable
// HTML) against the same URL after a random delay drawn from a configured
// window. Failures are counted by a RetryBudget that is shared by every
// Fetcher of a run rather than kept per call: a successful fetch resets it to
// zero, and once it reaches the configured ceiling Fetch returns an error
// wrapping ErrCircuitOpen instead of retrying.
//
// The budget is not reset by a trip. The next Fetch after a trip makes a single
// attempt; success closes the breaker again, failure trips it immediately.
package fetch
