package api

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateNodeRequest creates or upserts a node. Supplying an id of an
// existing node overwrites its mutable fields; supplying edge sets
// replaces its edges.
type CreateNodeRequest struct {
	ID          *int    `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Level       string  `json:"level" validate:"required,oneof=A1 A2 A3"`
	Question    *string `json:"question,omitempty"`
	Criteria    *string `json:"criteria,omitempty"`
	ParentNodes []int   `json:"parent_nodes,omitempty"`
	ChildNodes  []int   `json:"child_nodes,omitempty"`
}

// EditNodeRequest applies a partial edit; absent fields stay untouched.
type EditNodeRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Level    *string `json:"level,omitempty" validate:"omitempty,oneof=A1 A2 A3"`
	Question *string `json:"question,omitempty"`
	Criteria *string `json:"criteria,omitempty"`
}

// StartSessionResponse is the reply to starting a session.
type StartSessionResponse struct {
	SessionID string  `json:"session_id"`
	NodeID    int     `json:"node_id"`
	Question  *string `json:"question,omitempty"`
}

// AnswerRequest carries the free-text answer to the current question.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// AnswerResponse is the reply to a judged answer: either the next
// question or a completion marker, plus the verdict on the answer just
// given.
type AnswerResponse struct {
	Passed    bool    `json:"passed"`
	Score     int     `json:"score"`
	Completed bool    `json:"completed"`
	NodeID    *int    `json:"node_id,omitempty"`
	Question  *string `json:"question,omitempty"`
}

// SummaryResponse carries the interview feedback text.
type SummaryResponse struct {
	Summary string `json:"summary"`
}
