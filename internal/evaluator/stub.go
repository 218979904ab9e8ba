package evaluator

import "context"

// Stub is the no-credentials judge: every answer scores 1 and fails.
// Deterministic, so the engine is fully exercisable without an API key.
type Stub struct{}

// NewStub creates the stub oracle.
func NewStub() *Stub {
	return &Stub{}
}

// Judge returns a fixed failing judgment with score 1.
func (s *Stub) Judge(_ context.Context, _, _, _ string) (Judgment, error) {
	return Judgment{Passed: false, Score: 1}, nil
}

// Summarize explains why no summary is available.
func (s *Stub) Summarize(_ context.Context, _ []Result) (string, error) {
	return "API key is not set, can't provide summary", nil
}
