package indexer

import (
	"context"
	"time"
)

const maxBackoff = 30 * time.Second

// retryPolicy retries a call with exponential backoff capped at maxBackoff.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	// onRetry observes each failed attempt that will be retried.
	onRetry func(attempt int, delay time.Duration, err error)
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay}
}

func withRetry[T any](ctx context.Context, p retryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := p.baseDelay
	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if attempt >= p.maxRetries {
			return zero, err
		}
		if p.onRetry != nil {
			p.onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxBackoff)
	}
}
