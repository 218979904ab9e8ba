package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// breakerOracle sheds oracle calls when the upstream keeps failing, so a
// dead judge endpoint fails fast instead of stacking up slow round
// trips. Only transport-level failures count against the breaker;
// parseable-but-wrong responses do not.
type breakerOracle struct {
	inner Oracle
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps an Oracle with a circuit breaker.
func WithBreaker(o Oracle) Oracle {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "evaluator",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		IsSuccessful: func(err error) bool {
			var unavailable *ErrUnavailable
			var rateLimited *ErrRateLimit
			return !errors.As(err, &unavailable) && !errors.As(err, &rateLimited)
		},
	})
	return &breakerOracle{inner: o, cb: cb}
}

func (b *breakerOracle) Judge(ctx context.Context, question, criteria, answer string) (Judgment, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.Judge(ctx, question, criteria, answer)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Judgment{}, &ErrUnavailable{Err: err}
		}
		return Judgment{}, err
	}
	return result.(Judgment), nil
}

func (b *breakerOracle) Summarize(ctx context.Context, results []Result) (string, error) {
	return b.inner.Summarize(ctx, results)
}

// UpdateAPIKey forwards credential rotation to the wrapped oracle.
func (b *breakerOracle) UpdateAPIKey(key string) {
	if kr, ok := b.inner.(KeyRotator); ok {
		kr.UpdateAPIKey(key)
	}
}
