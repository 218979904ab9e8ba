package evaluator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// retryOracle is a decorator that retries transient oracle failures with
// exponential backoff and jitter. Exhaustion returns the last error; the
// caller decides what that means for session state.
type retryOracle struct {
	inner Oracle
	cfg   RetryConfig
}

// WithRetry wraps an Oracle with bounded retries.
func WithRetry(o Oracle, cfg RetryConfig) Oracle {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	return &retryOracle{inner: o, cfg: cfg}
}

func (r *retryOracle) Judge(ctx context.Context, question, criteria, answer string) (Judgment, error) {
	var lastErr error
	invalidRetried := false

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		judgment, err := r.inner.Judge(ctx, question, criteria, answer)
		if err == nil {
			return judgment, nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) {
			return Judgment{}, err
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return Judgment{}, ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}
	return Judgment{}, lastErr
}

func (r *retryOracle) Summarize(ctx context.Context, results []Result) (string, error) {
	// Summaries are best-effort; one shot is enough.
	return r.inner.Summarize(ctx, results)
}

// UpdateAPIKey forwards credential rotation to the wrapped oracle.
func (r *retryOracle) UpdateAPIKey(key string) {
	if kr, ok := r.inner.(KeyRotator); ok {
		kr.UpdateAPIKey(key)
	}
}

// shouldRetry classifies an error: rate limits and unavailability are
// transient, a malformed response gets exactly one more chance,
// everything else surfaces immediately.
func shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rateLimited *ErrRateLimit
	if errors.As(err, &rateLimited) {
		return true
	}
	var unavailable *ErrUnavailable
	if errors.As(err, &unavailable) {
		return true
	}
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}
	return false
}

// backoff computes the wait before the next attempt: exponential with
// full jitter, honoring a server-provided retry-after when present.
func (r *retryOracle) backoff(attempt int, err error) time.Duration {
	var rateLimited *ErrRateLimit
	if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
		return rateLimited.RetryAfter
	}

	wait := time.Duration(float64(r.cfg.BaseDelay) * math.Pow(2, float64(attempt)))
	if wait > r.cfg.MaxDelay {
		wait = r.cfg.MaxDelay
	}
	return time.Duration(rand.Float64() * float64(wait))
}
