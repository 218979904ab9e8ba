package evaluator

import (
	"context"
	"sync"
)

// ScriptedCall records one Judge invocation for assertions.
type ScriptedCall struct {
	Question string
	Criteria string
	Answer   string
}

// ScriptedResponse is one canned oracle reply.
type ScriptedResponse struct {
	Judgment Judgment
	Err      error
}

// Scripted is a deterministic Oracle for tests: it replays canned
// judgments in FIFO order and records every call.
type Scripted struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	Calls     []ScriptedCall
	Summary   string
}

// NewScripted creates a scripted oracle with the given replies.
func NewScripted(responses ...ScriptedResponse) *Scripted {
	return &Scripted{responses: responses, Summary: "scripted summary"}
}

// Pass is shorthand for a passing reply with the given score.
func Pass(score int) ScriptedResponse {
	return ScriptedResponse{Judgment: Judgment{Passed: true, Score: score}}
}

// Fail is shorthand for a failing reply with the given score.
func Fail(score int) ScriptedResponse {
	return ScriptedResponse{Judgment: Judgment{Passed: false, Score: score}}
}

// Judge pops the next canned reply, or an unavailability error when the
// script is exhausted.
func (s *Scripted) Judge(_ context.Context, question, criteria, answer string) (Judgment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, ScriptedCall{Question: question, Criteria: criteria, Answer: answer})

	if len(s.responses) == 0 {
		return Judgment{}, &ErrUnavailable{}
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	if resp.Err != nil {
		return Judgment{}, resp.Err
	}
	return resp.Judgment, nil
}

// Summarize returns the fixed summary text.
func (s *Scripted) Summarize(_ context.Context, _ []Result) (string, error) {
	return s.Summary, nil
}
