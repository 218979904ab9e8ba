// Package node defines the topic node entity of the knowledge graph:
// a question unit with a difficulty level, a traversal status and
// mirrored parent/child edges.
package node

import (
	"fmt"
	"sort"

	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// Status is the traversal state of a node.
type Status string

const (
	StatusNotReached Status = "not_reached"
	StatusInProgress Status = "in_progress"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
	StatusDisabled   Status = "disabled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotReached, StatusInProgress, StatusPassed, StatusFailed, StatusDisabled:
		return true
	}
	return false
}

// Level is the difficulty tier of a node. Levels are ordered: A1 < A2 < A3.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelA3 Level = "A3"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == LevelA1 || l == LevelA2 || l == LevelA3
}

// ParseLevel parses a level string, failing with a validation error for
// anything outside {A1, A2, A3}.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", apperrors.NewValidation(fmt.Sprintf("invalid level %q, must be one of A1, A2, A3", s))
	}
	return l, nil
}

// Node is a single topic/question unit in the knowledge graph.
//
// Edges are stored on both ends: if B is in A.ChildNodes then A is in
// B.ParentNodes. The GraphStore is the only writer of edge sets; nothing
// outside it may assume a Node it holds reflects the live graph.
type Node struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Level  Level  `json:"level"`
	Status Status `json:"status"`

	ChildNodes  []int `json:"child_nodes"`
	ParentNodes []int `json:"parent_nodes"`

	Question *string `json:"question,omitempty"`
	Criteria *string `json:"criteria,omitempty"`
	Score    *int    `json:"score,omitempty"`

	// PreDisableStatus remembers the status a node held before it was
	// disabled, so re-enabling restores prior progress instead of
	// resetting it. Internal bookkeeping, not part of the API shape.
	PreDisableStatus *Status `json:"-"`
}

// Validate enforces the creation invariants: non-empty name and a known
// level.
func (n *Node) Validate() error {
	if n.Name == "" {
		return apperrors.NewValidation("node name must not be empty")
	}
	if !n.Level.Valid() {
		return apperrors.NewValidation(fmt.Sprintf("invalid level %q, must be one of A1, A2, A3", n.Level))
	}
	if n.Status != "" && !n.Status.Valid() {
		return apperrors.NewValidation(fmt.Sprintf("invalid status %q", n.Status))
	}
	return nil
}

// Disabled reports whether the node is excluded from traversal.
func (n *Node) Disabled() bool {
	return n.Status == StatusDisabled
}

// IsRoot reports whether the node has no parents.
func (n *Node) IsRoot() bool {
	return len(n.ParentNodes) == 0
}

// HasChild reports whether id is a direct child of the node.
func (n *Node) HasChild(id int) bool {
	return containsID(n.ChildNodes, id)
}

// HasParent reports whether id is a direct parent of the node.
func (n *Node) HasParent(id int) bool {
	return containsID(n.ParentNodes, id)
}

// Clone returns a deep copy so callers can hand nodes across the store
// boundary without aliasing its internal state.
func (n *Node) Clone() *Node {
	c := *n
	c.ChildNodes = append([]int(nil), n.ChildNodes...)
	c.ParentNodes = append([]int(nil), n.ParentNodes...)
	c.Question = clonePtr(n.Question)
	c.Criteria = clonePtr(n.Criteria)
	c.Score = clonePtr(n.Score)
	c.PreDisableStatus = clonePtr(n.PreDisableStatus)
	return &c
}

// NormalizeEdges sorts and deduplicates both edge sets. The store calls
// this after every structural mutation so listings stay deterministic.
func (n *Node) NormalizeEdges() {
	n.ChildNodes = normalizeIDs(n.ChildNodes)
	n.ParentNodes = normalizeIDs(n.ParentNodes)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func normalizeIDs(ids []int) []int {
	if len(ids) == 0 {
		return []int{}
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
