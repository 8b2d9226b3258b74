package bybit

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds how transient API failures are retried. The overall
// budget stays small: a broker call that keeps failing is reported as a
// failure of that call, never of the whole pipeline step.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// withRetry runs fn under the client's call timeout, retrying retryable
// errors with jittered exponential backoff.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == c.retry.MaxRetries || !IsRetryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoffDelay(attempt)):
		}
	}
	return lastErr
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(c.retry.InitialDelay) * math.Pow(c.retry.BackoffFactor, float64(attempt)))
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	if c.retry.Jitter {
		delay += time.Duration(rand.Int63n(int64(delay)/5 + 1))
	}
	return delay
}
