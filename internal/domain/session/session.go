// Package session defines the assessment session entity: one interview
// run scoped to a single level, with its own traversal position and
// append-only answer history.
package session

import (
	"time"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
)

// Visit is one judged answer in a session's history.
type Visit struct {
	NodeID int  `json:"node_id"`
	Passed bool `json:"passed"`
	Score  int  `json:"score"`
}

// Session is a single assessment run. Sessions never mutate node
// structure, only node status and score through the engine.
type Session struct {
	ID    string     `json:"session_id"`
	Level node.Level `json:"level"`

	// CurrentNodeID is the node awaiting an answer, nil once completed.
	CurrentNodeID *int `json:"current_node_id,omitempty"`

	// Visited is the full judged history, append-only.
	Visited []Visit `json:"visited"`

	Completed bool `json:"completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session positioned at the given starting node.
func New(id string, level node.Level, startNodeID int) *Session {
	now := time.Now().UTC()
	start := startNodeID
	return &Session{
		ID:            id,
		Level:         level,
		CurrentNodeID: &start,
		Visited:       []Visit{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordVisit appends a judged answer to the history.
func (s *Session) RecordVisit(nodeID int, passed bool, score int) {
	s.Visited = append(s.Visited, Visit{NodeID: nodeID, Passed: passed, Score: score})
	s.UpdatedAt = time.Now().UTC()
}

// Advance moves the session to the next node to ask.
func (s *Session) Advance(nodeID int) {
	next := nodeID
	s.CurrentNodeID = &next
	s.UpdatedAt = time.Now().UTC()
}

// Complete finalizes the session. Idempotent.
func (s *Session) Complete() {
	if s.Completed {
		return
	}
	s.Completed = true
	s.CurrentNodeID = nil
	s.UpdatedAt = time.Now().UTC()
}

// Active reports whether the session can still accept an answer.
func (s *Session) Active() bool {
	return !s.Completed && s.CurrentNodeID != nil
}

// VisitedIDs returns the node ids in visit order.
func (s *Session) VisitedIDs() []int {
	ids := make([]int, len(s.Visited))
	for i, v := range s.Visited {
		ids[i] = v.NodeID
	}
	return ids
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.CurrentNodeID != nil {
		id := *s.CurrentNodeID
		c.CurrentNodeID = &id
	}
	c.Visited = append([]Visit(nil), s.Visited...)
	return &c
}
