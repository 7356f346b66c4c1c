package dialer

import "time"

// RetryPolicy describes how connect failures are retried: a bounded number of
// re-attempts at a fixed backoff, gated by a retryable-error predicate.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Retryable  func(code int) bool
}

// ShouldRetry reports whether another attempt is allowed for the given error
// code after `used` retries have already been consumed.
func (p RetryPolicy) ShouldRetry(code, used int) bool {
	if p.Retryable == nil || !p.Retryable(code) {
		return false
	}
	return used < p.MaxRetries
}
