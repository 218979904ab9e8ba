// Package evaluator is the boundary to the external text-evaluation
// oracle. It sends a question, its grading criteria and a candidate
// answer to an LLM judge and returns a pass/fail judgment with the raw
// numeric score. No assessment logic lives here beyond transport,
// response parsing and retry.
package evaluator

import (
	"context"
	"time"
)

// ScoreMax is the top of the judge's integer scale. The judge grades
// answers 0..4; the pass boundary below that is adapter configuration,
// never engine logic.
const ScoreMax = 4

// DefaultPassScore is the lowest score counted as a pass.
const DefaultPassScore = 2

// Judgment is the oracle's verdict on one answer.
type Judgment struct {
	Passed bool
	Score  int
}

// Result is one judged answer in the shape the summary prompt expects.
type Result struct {
	Topic    string
	Question string
	Score    int
}

// Oracle judges free-text answers and writes interview feedback. Judge
// may fail with a transient error (retried by the caller through the
// decorators in this package) or a permanent one.
type Oracle interface {
	Judge(ctx context.Context, question, criteria, answer string) (Judgment, error)
	Summarize(ctx context.Context, results []Result) (string, error)
}

// KeyRotator is implemented by oracles whose credential can be swapped
// at runtime. The decorators forward the rotation to the wrapped client.
type KeyRotator interface {
	UpdateAPIKey(key string)
}

// Config configures the oracle client.
type Config struct {
	// Provider selects the implementation: "openai", "azure" or "stub".
	Provider string
	APIKey   string
	// BaseURL is the endpoint: an Azure resource URL for the azure
	// provider, or any OpenAI-compatible base URL otherwise. Empty means
	// the public OpenAI API.
	BaseURL    string
	APIVersion string
	Model      string
	// Domain names the subject under assessment, e.g. "Java". It is
	// interpolated into the judge and summary prompts.
	Domain string
	// PassScore is the lowest score counted as a pass.
	PassScore   int
	Temperature float32
}

// RetryConfig bounds the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the retry bounds used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// New builds the oracle stack for the given config: the provider client
// wrapped in a circuit breaker wrapped in bounded retries. An empty API
// key on the LLM providers degrades to the deterministic stub so the
// system stays usable without credentials.
func New(cfg Config, retry RetryConfig) (Oracle, error) {
	var inner Oracle
	switch cfg.Provider {
	case "stub", "":
		inner = NewStub()
	case "openai", "azure":
		if cfg.APIKey == "" {
			inner = NewStub()
			break
		}
		client, err := NewOpenAIOracle(cfg)
		if err != nil {
			return nil, err
		}
		inner = client
	default:
		return nil, errUnknownProvider(cfg.Provider)
	}
	return WithRetry(WithBreaker(inner), retry), nil
}
