package evaluator

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the oracle returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("oracle rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable indicates the oracle is down, unreachable, or shed by
// the circuit breaker.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle unavailable: %v", e.Err)
	}
	return "oracle unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the oracle answered with content that
// does not contain a parseable score.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid oracle response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

func errUnknownProvider(name string) error {
	return fmt.Errorf("unknown evaluator provider %q", name)
}
