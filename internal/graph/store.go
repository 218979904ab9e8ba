// Package graph owns the knowledge graph: the set of topic nodes and
// their directed parent/child edges. The Store is the only writer of
// node structure and enforces acyclicity and referential integrity on
// every mutation.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// NodeSpec describes a node to create. When ID is nil the store assigns
// the next free id. When ID collides with an existing node the call acts
// as an upsert: mutable fields are overwritten and edges are preserved
// unless ParentNodes/ChildNodes are supplied.
type NodeSpec struct {
	ID          *int
	Name        string
	Level       node.Level
	Question    *string
	Criteria    *string
	ParentNodes []int
	ChildNodes  []int
}

// NodePatch carries the fields an edit may change. Nil fields are left
// untouched.
type NodePatch struct {
	Name     *string
	Level    *node.Level
	Question *string
	Criteria *string
}

// Store is an in-memory graph repository guarded by a single RWMutex.
// Structural edits are rare relative to reads, so one coarse write lock
// keeps the cycle check and the edge mutation atomic without fuss.
type Store struct {
	mu     sync.RWMutex
	nodes  map[int]*node.Node
	nextID int
	logger *zap.Logger
}

// NewStore creates an empty graph store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		nodes:  make(map[int]*node.Node),
		nextID: 1,
		logger: logger,
	}
}

// CreateNode validates and stores a node, assigning an id when the spec
// carries none. On id collision it upserts: name/level/question/criteria
// are overwritten, status and score survive, and edges are replaced only
// when the spec supplies them.
func (s *Store) CreateNode(spec NodeSpec) (*node.Node, error) {
	candidate := &node.Node{
		Name:     spec.Name,
		Level:    spec.Level,
		Question: spec.Question,
		Criteria: spec.Criteria,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	if spec.ID != nil {
		id = *spec.ID
		if id <= 0 {
			return nil, apperrors.NewValidation(fmt.Sprintf("node id must be positive, got %d", id))
		}
	}

	// Referential integrity of any supplied edges, before touching state.
	for _, pid := range spec.ParentNodes {
		if err := s.requireOtherLocked(pid, id); err != nil {
			return nil, err
		}
	}
	for _, cid := range spec.ChildNodes {
		if err := s.requireOtherLocked(cid, id); err != nil {
			return nil, err
		}
	}

	existing, upsert := s.nodes[id]

	n := &node.Node{
		ID:       id,
		Name:     spec.Name,
		Level:    spec.Level,
		Status:   node.StatusNotReached,
		Question: spec.Question,
		Criteria: spec.Criteria,
	}
	if upsert {
		n.Status = existing.Status
		n.Score = existing.Score
		n.PreDisableStatus = existing.PreDisableStatus
		n.ParentNodes = append([]int(nil), existing.ParentNodes...)
		n.ChildNodes = append([]int(nil), existing.ChildNodes...)
	}
	if spec.ParentNodes != nil {
		n.ParentNodes = append([]int(nil), spec.ParentNodes...)
	}
	if spec.ChildNodes != nil {
		n.ChildNodes = append([]int(nil), spec.ChildNodes...)
	}
	n.NormalizeEdges()

	// Any new cycle must pass through the node being written, so a
	// reachability walk from the candidate back to itself suffices.
	if s.wouldCycleLocked(n) {
		return nil, apperrors.NewCycle(fmt.Sprintf("edges of node %d would create a cycle", id))
	}

	// Commit: drop stale mirrors, then install the new ones.
	if upsert {
		s.unlinkLocked(existing)
	}
	s.nodes[id] = n
	s.linkLocked(n)

	if spec.ID == nil || id >= s.nextID {
		s.nextID = id + 1
	}

	s.logger.Info("node stored",
		zap.Int("node_id", id),
		zap.String("level", string(n.Level)),
		zap.Bool("upsert", upsert),
	)
	return n.Clone(), nil
}

// GetNode returns a copy of the node or a not-found error.
func (s *Store) GetNode(id int) (*node.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	return n.Clone(), nil
}

// ListNodes returns copies of all nodes ordered by ascending id.
func (s *Store) ListNodes() []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns a deep copy of the whole node set keyed by id. The
// traversal policy runs against snapshots so selection never holds the
// store lock.
func (s *Store) Snapshot() map[int]*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]*node.Node, len(s.nodes))
	for id, n := range s.nodes {
		out[id] = n.Clone()
	}
	return out
}

// EditNode applies only the supplied fields of the patch.
func (s *Store) EditNode(id int, patch NodePatch) (*node.Node, error) {
	if patch.Level != nil && !patch.Level.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid level %q, must be one of A1, A2, A3", *patch.Level))
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, apperrors.NewValidation("node name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	if patch.Name != nil {
		n.Name = *patch.Name
	}
	if patch.Level != nil {
		n.Level = *patch.Level
	}
	if patch.Question != nil {
		n.Question = patch.Question
	}
	if patch.Criteria != nil {
		n.Criteria = patch.Criteria
	}
	return n.Clone(), nil
}

// DeleteNode removes the node and cascades: every other node referencing
// it in a parent/child set drops the reference in the same critical
// section.
func (s *Store) DeleteNode(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	s.unlinkLocked(n)
	delete(s.nodes, id)

	s.logger.Info("node deleted", zap.Int("node_id", id))
	return nil
}

// CreateEdge adds the directed edge parentID -> childID, updating both
// mirrored sets atomically. It rejects self-loops and any edge that
// would make childID a (transitive) ancestor of parentID. Re-creating an
// existing edge is a no-op.
func (s *Store) CreateEdge(parentID, childID int) error {
	if parentID == childID {
		return apperrors.NewValidation(fmt.Sprintf("self-loop edge %d -> %d is not allowed", parentID, childID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", parentID))
	}
	child, ok := s.nodes[childID]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", childID))
	}
	if parent.HasChild(childID) {
		return nil
	}

	// The cycle check must see the graph before mutation: the edge is
	// rejected in full when parentID is reachable from childID.
	if s.reachableLocked(childID, parentID) {
		return apperrors.NewCycle(fmt.Sprintf("edge %d -> %d would create a cycle", parentID, childID))
	}

	parent.ChildNodes = append(parent.ChildNodes, childID)
	child.ParentNodes = append(child.ParentNodes, parentID)
	parent.NormalizeEdges()
	child.NormalizeEdges()

	s.logger.Info("edge created", zap.Int("parent", parentID), zap.Int("child", childID))
	return nil
}

// DeleteEdge removes the mirrored references if present. A missing edge
// is a no-op, not an error; missing nodes still are.
func (s *Store) DeleteEdge(parentID, childID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", parentID))
	}
	child, ok := s.nodes[childID]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", childID))
	}

	parent.ChildNodes = removeID(parent.ChildNodes, childID)
	child.ParentNodes = removeID(child.ParentNodes, parentID)
	return nil
}

// SetEnabled toggles the disabled state. Disabling remembers the current
// status; enabling restores it, so prior progress survives the round
// trip. Edges are never touched. Both directions are idempotent.
func (s *Store) SetEnabled(id int, enabled bool) (*node.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}

	switch {
	case !enabled && n.Status != node.StatusDisabled:
		prior := n.Status
		n.PreDisableStatus = &prior
		n.Status = node.StatusDisabled
	case enabled && n.Status == node.StatusDisabled:
		restored := node.StatusNotReached
		if n.PreDisableStatus != nil {
			restored = *n.PreDisableStatus
		}
		n.Status = restored
		n.PreDisableStatus = nil
	}
	return n.Clone(), nil
}

// ResetAll sets every node's status to not_reached and clears its score.
// Structure is untouched. Idempotent.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.nodes {
		n.Status = node.StatusNotReached
		n.Score = nil
		n.PreDisableStatus = nil
	}
	s.logger.Info("graph progress reset", zap.Int("nodes", len(s.nodes)))
}

// TransitionStatus is the optimistic claim primitive for traversal: it
// moves the node from the observed status to the new one, or fails with
// a conflict when another session got there first. Callers re-run their
// selection on conflict rather than double-assigning a node.
func (s *Store) TransitionStatus(id int, from, to node.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	if n.Status != from {
		return apperrors.NewConflict(fmt.Sprintf("node %d is %s, expected %s", id, n.Status, from))
	}
	n.Status = to
	return nil
}

// ApplyJudgment records the oracle's verdict on a node: status becomes
// passed or failed and the score is stored. Called only after the
// evaluator round trip has finished, so no lock is held across it.
func (s *Store) ApplyJudgment(id int, passed bool, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	if passed {
		n.Status = node.StatusPassed
	} else {
		n.Status = node.StatusFailed
	}
	n.Score = &score
	return nil
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// requireOtherLocked checks that id exists and is not self.
func (s *Store) requireOtherLocked(id, self int) error {
	if id == self {
		return apperrors.NewValidation(fmt.Sprintf("self-loop edge %d -> %d is not allowed", self, self))
	}
	if _, ok := s.nodes[id]; !ok {
		return apperrors.NewNotFound(fmt.Sprintf("node %d not found", id))
	}
	return nil
}

// wouldCycleLocked reports whether installing candidate (in place of any
// node with the same id) yields a graph where candidate reaches itself
// through child edges. The walk runs against the post-commit adjacency:
// stale mirror edges pointing at the candidate are ignored unless the
// candidate still lists their owner as a parent.
func (s *Store) wouldCycleLocked(candidate *node.Node) bool {
	children := func(id int) []int {
		if id == candidate.ID {
			return candidate.ChildNodes
		}
		n, ok := s.nodes[id]
		if !ok {
			return nil
		}
		isParent := candidate.HasParent(id)
		if isParent == n.HasChild(candidate.ID) {
			return n.ChildNodes
		}
		if isParent {
			// New parent edge not yet mirrored.
			return append(append([]int(nil), n.ChildNodes...), candidate.ID)
		}
		// Stale mirror that the commit will drop.
		out := make([]int, 0, len(n.ChildNodes))
		for _, cid := range n.ChildNodes {
			if cid != candidate.ID {
				out = append(out, cid)
			}
		}
		return out
	}

	stack := append([]int(nil), candidate.ChildNodes...)
	visited := make(map[int]struct{})
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate.ID {
			return true
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		stack = append(stack, children(id)...)
	}
	return false
}

// reachableLocked reports whether to is reachable from from following
// child edges.
func (s *Store) reachableLocked(from, to int) bool {
	stack := []int{from}
	visited := make(map[int]struct{})
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if n, ok := s.nodes[id]; ok {
			stack = append(stack, n.ChildNodes...)
		}
	}
	return false
}

// linkLocked installs the node's edges on the opposite ends.
func (s *Store) linkLocked(n *node.Node) {
	for _, pid := range n.ParentNodes {
		if p, ok := s.nodes[pid]; ok && !p.HasChild(n.ID) {
			p.ChildNodes = append(p.ChildNodes, n.ID)
			p.NormalizeEdges()
		}
	}
	for _, cid := range n.ChildNodes {
		if c, ok := s.nodes[cid]; ok && !c.HasParent(n.ID) {
			c.ParentNodes = append(c.ParentNodes, n.ID)
			c.NormalizeEdges()
		}
	}
}

// unlinkLocked removes every reference to the node from other nodes.
func (s *Store) unlinkLocked(n *node.Node) {
	for _, other := range s.nodes {
		if other.ID == n.ID {
			continue
		}
		other.ChildNodes = removeID(other.ChildNodes, n.ID)
		other.ParentNodes = removeID(other.ParentNodes, n.ID)
	}
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
