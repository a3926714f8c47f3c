package fetch

import "sync/atomic"

// RetryBudget counts consecutive fetch failures across all fetches of a run.
// It is safe for concurrent use.
type RetryBudget struct {
	failures atomic.Int64
}

// NewRetryBudget returns a budget with a zero count.
func NewRetryBudget() *RetryBudget {
	return &RetryBudget{}
}

// Fail records a failure and returns the new consecutive failure count.
func (b *RetryBudget) Fail() int {
	return int(b.failures.Add(1))
}

// Reset clears the count after a successful fetch.
func (b *RetryBudget) Reset() {
	b.failures.Store(0)
}

// Count returns the current consecutive failure count.
func (b *RetryBudget) Count() int {
	return int(b.failures.Load())
}
