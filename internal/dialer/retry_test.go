package dialer

import (
	"testing"
	"time"

	"github.com/acme/lead-dialer/internal/telephony"
)

func TestRetryPolicyShouldRetry(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		Retryable:  telephony.IsTransientCode,
	}

	cases := []struct {
		name string
		code int
		used int
		want bool
	}{
		{"timeout first attempt", telephony.CodeConnectionTimeout, 0, true},
		{"connection error second attempt", telephony.CodeConnectionError, 1, true},
		{"transport error exhausted", telephony.CodeTransportError, 2, false},
		{"terminal code", 31002, 0, false},
		{"no code", 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.ShouldRetry(tc.code, tc.used); got != tc.want {
				t.Errorf("ShouldRetry(%d, %d) = %v, want %v", tc.code, tc.used, got, tc.want)
			}
		})
	}
}

func TestRetryPolicyNilPredicate(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5}
	if policy.ShouldRetry(telephony.CodeConnectionError, 0) {
		t.Fatal("nil predicate must not allow retries")
	}
}
