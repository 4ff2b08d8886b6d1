package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"jobscout/internal/model"
)

// Fetcher is a decorator that retries transient failures with exponential
// backoff and jitter before delegating to the wrapped PageFetcher.
type Fetcher struct {
	inner      model.PageFetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewFetcher wraps a PageFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewFetcher(inner model.PageFetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// FetchPage attempts the fetch, retrying on transient errors.
func (f *Fetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	body, err := f.inner.FetchPage(ctx, url)
	if err == nil {
		return body, nil
	}

	if !isRetryable(err) {
		return nil, err
	}

	var lastErr error = err
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		delay := f.backoffDelay(attempt, lastErr)

		f.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		body, err = f.inner.FetchPage(ctx, url)
		if err == nil {
			return body, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (f *Fetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := f.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}
