package processor

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy returns the delay to wait before dispatching the given
// attempt (1-based). Zero means retry immediately.
type RetryPolicy func(attempt int) time.Duration

// NoDelay retries immediately. This preserves the historical contract;
// deployments with flaky dependencies should prefer ExponentialDelay.
func NoDelay() RetryPolicy {
	return func(int) time.Duration {
		return 0
	}
}

// ExponentialDelay doubles the delay per attempt from initial up to max,
// without jitter so retry timing stays deterministic in tests.
func ExponentialDelay(initial, max time.Duration) RetryPolicy {
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	if max < initial {
		max = initial
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.RandomizationFactor = 0
		b.Multiplier = 2

		delay := b.NextBackOff()
		for i := 1; i < attempt; i++ {
			delay = b.NextBackOff()
		}
		if delay > max {
			delay = max
		}
		return delay
	}
}
