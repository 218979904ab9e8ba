package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(zap.NewNop())
}

func mustCreate(t *testing.T, s *Store, id int, level node.Level) *node.Node {
	t.Helper()
	n, err := s.CreateNode(NodeSpec{ID: &id, Name: "node", Level: level})
	require.NoError(t, err)
	return n
}

// diamond builds 1 -> {2, 3} -> 4, all at A1.
func diamond(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	for id := 1; id <= 4; id++ {
		mustCreate(t, s, id, node.LevelA1)
	}
	require.NoError(t, s.CreateEdge(1, 2))
	require.NoError(t, s.CreateEdge(1, 3))
	require.NoError(t, s.CreateEdge(2, 4))
	require.NoError(t, s.CreateEdge(3, 4))
	return s
}

func TestCreateNode_AssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateNode(NodeSpec{Name: "first", Level: node.LevelA1})
	require.NoError(t, err)
	second, err := s.CreateNode(NodeSpec{Name: "second", Level: node.LevelA2})
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, node.StatusNotReached, first.Status)
}

func TestCreateNode_Validation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateNode(NodeSpec{Name: "", Level: node.LevelA1})
	assert.True(t, apperrors.IsValidation(err))

	_, err = s.CreateNode(NodeSpec{Name: "x", Level: node.Level("B2")})
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateNode_UpsertPreservesProgressAndEdges(t *testing.T) {
	s := diamond(t)
	require.NoError(t, s.ApplyJudgment(2, true, 4))

	id := 2
	updated, err := s.CreateNode(NodeSpec{ID: &id, Name: "renamed", Level: node.LevelA2})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, node.LevelA2, updated.Level)
	// Status, score and edges survive the upsert.
	assert.Equal(t, node.StatusPassed, updated.Status)
	require.NotNil(t, updated.Score)
	assert.Equal(t, 4, *updated.Score)
	assert.Equal(t, []int{1}, updated.ParentNodes)
	assert.Equal(t, []int{4}, updated.ChildNodes)
}

func TestCreateNode_UpsertReplacesSuppliedEdges(t *testing.T) {
	s := diamond(t)

	id := 4
	updated, err := s.CreateNode(NodeSpec{ID: &id, Name: "leaf", Level: node.LevelA1, ParentNodes: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, updated.ParentNodes)

	// The dropped mirror is cleaned up on the other end.
	three, err := s.GetNode(3)
	require.NoError(t, err)
	assert.Empty(t, three.ChildNodes)
}

func TestCreateNode_SuppliedEdgesMustExist(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	id := 2
	_, err := s.CreateNode(NodeSpec{ID: &id, Name: "x", Level: node.LevelA1, ParentNodes: []int{99}})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateNode_UpsertCycleRejected(t *testing.T) {
	s := diamond(t)

	// Making 1 a child of 4 through upsert closes the diamond.
	id := 1
	_, err := s.CreateNode(NodeSpec{ID: &id, Name: "root", Level: node.LevelA1, ParentNodes: []int{4}})
	assert.True(t, apperrors.IsCycle(err))

	// Nothing changed.
	root, err := s.GetNode(1)
	require.NoError(t, err)
	assert.Empty(t, root.ParentNodes)
	assert.Equal(t, []int{2, 3}, root.ChildNodes)
}

func TestGetNode_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetNode(42)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetNode_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	n, err := s.GetNode(1)
	require.NoError(t, err)
	n.Name = "mutated"
	n.ChildNodes = append(n.ChildNodes, 99)

	fresh, err := s.GetNode(1)
	require.NoError(t, err)
	assert.Equal(t, "node", fresh.Name)
	assert.Empty(t, fresh.ChildNodes)
}

func TestListNodes_OrderedByID(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []int{5, 1, 3} {
		mustCreate(t, s, id, node.LevelA1)
	}
	nodes := s.ListNodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, 1, nodes[0].ID)
	assert.Equal(t, 3, nodes[1].ID)
	assert.Equal(t, 5, nodes[2].ID)
}

func TestEditNode_PartialUpdate(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	question := "What is a JVM?"
	level := node.LevelA2
	n, err := s.EditNode(1, NodePatch{Level: &level, Question: &question})
	require.NoError(t, err)

	assert.Equal(t, "node", n.Name)
	assert.Equal(t, node.LevelA2, n.Level)
	require.NotNil(t, n.Question)
	assert.Equal(t, question, *n.Question)
	assert.Nil(t, n.Criteria)
}

func TestEditNode_Errors(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	_, err := s.EditNode(99, NodePatch{})
	assert.True(t, apperrors.IsNotFound(err))

	empty := ""
	_, err = s.EditNode(1, NodePatch{Name: &empty})
	assert.True(t, apperrors.IsValidation(err))

	bad := node.Level("C1")
	_, err = s.EditNode(1, NodePatch{Level: &bad})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteNode_CascadesEdgeCleanup(t *testing.T) {
	s := diamond(t)

	require.NoError(t, s.DeleteNode(2))

	_, err := s.GetNode(2)
	assert.True(t, apperrors.IsNotFound(err))

	// No surviving node references 2 anywhere.
	for _, n := range s.ListNodes() {
		assert.NotContains(t, n.ChildNodes, 2)
		assert.NotContains(t, n.ParentNodes, 2)
	}
}

func TestDeleteNode_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteNode(1)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateEdge_MirroredOnBothEnds(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)
	mustCreate(t, s, 2, node.LevelA1)

	require.NoError(t, s.CreateEdge(1, 2))

	parent, _ := s.GetNode(1)
	child, _ := s.GetNode(2)
	assert.Equal(t, []int{2}, parent.ChildNodes)
	assert.Equal(t, []int{1}, child.ParentNodes)
}

func TestCreateEdge_Errors(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	assert.True(t, apperrors.IsValidation(s.CreateEdge(1, 1)))
	assert.True(t, apperrors.IsNotFound(s.CreateEdge(1, 99)))
	assert.True(t, apperrors.IsNotFound(s.CreateEdge(99, 1)))
}

func TestCreateEdge_DuplicateIsNoop(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)
	mustCreate(t, s, 2, node.LevelA1)

	require.NoError(t, s.CreateEdge(1, 2))
	require.NoError(t, s.CreateEdge(1, 2))

	parent, _ := s.GetNode(1)
	assert.Equal(t, []int{2}, parent.ChildNodes)
}

func TestCreateEdge_CycleRejectedAndGraphUnchanged(t *testing.T) {
	s := diamond(t)
	before := s.ListNodes()

	// 2 is already a (transitive) descendant of 1.
	err := s.CreateEdge(2, 1)
	assert.True(t, apperrors.IsCycle(err))
	err = s.CreateEdge(4, 1)
	assert.True(t, apperrors.IsCycle(err))

	assert.Equal(t, before, s.ListNodes())
}

func TestDeleteEdge_MissingEdgeIsNoop(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)
	mustCreate(t, s, 2, node.LevelA1)

	require.NoError(t, s.DeleteEdge(1, 2))
	assert.True(t, apperrors.IsNotFound(s.DeleteEdge(1, 99)))
}

func TestDeleteEdge_RemovesBothMirrors(t *testing.T) {
	s := diamond(t)
	require.NoError(t, s.DeleteEdge(1, 2))

	parent, _ := s.GetNode(1)
	child, _ := s.GetNode(2)
	assert.Equal(t, []int{3}, parent.ChildNodes)
	assert.Empty(t, child.ParentNodes)
}

func TestSetEnabled_RestoresPriorProgress(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)
	require.NoError(t, s.ApplyJudgment(1, true, 3))

	disabled, err := s.SetEnabled(1, false)
	require.NoError(t, err)
	assert.Equal(t, node.StatusDisabled, disabled.Status)

	restored, err := s.SetEnabled(1, true)
	require.NoError(t, err)
	assert.Equal(t, node.StatusPassed, restored.Status)
}

func TestSetEnabled_Idempotent(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	_, err := s.SetEnabled(1, false)
	require.NoError(t, err)
	again, err := s.SetEnabled(1, false)
	require.NoError(t, err)
	assert.Equal(t, node.StatusDisabled, again.Status)

	restored, err := s.SetEnabled(1, true)
	require.NoError(t, err)
	assert.Equal(t, node.StatusNotReached, restored.Status)

	stillEnabled, err := s.SetEnabled(1, true)
	require.NoError(t, err)
	assert.Equal(t, node.StatusNotReached, stillEnabled.Status)
}

func TestSetEnabled_PreservesEdges(t *testing.T) {
	s := diamond(t)

	_, err := s.SetEnabled(2, false)
	require.NoError(t, err)
	_, err = s.SetEnabled(2, true)
	require.NoError(t, err)

	n, _ := s.GetNode(2)
	assert.Equal(t, []int{1}, n.ParentNodes)
	assert.Equal(t, []int{4}, n.ChildNodes)
}

func TestResetAll_Idempotent(t *testing.T) {
	s := diamond(t)
	require.NoError(t, s.ApplyJudgment(1, true, 4))
	require.NoError(t, s.ApplyJudgment(2, false, 1))
	_, err := s.SetEnabled(3, false)
	require.NoError(t, err)

	s.ResetAll()
	first := s.ListNodes()
	s.ResetAll()
	second := s.ListNodes()

	assert.Equal(t, first, second)
	for _, n := range first {
		assert.Equal(t, node.StatusNotReached, n.Status)
		assert.Nil(t, n.Score)
	}
}

func TestTransitionStatus_CAS(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	require.NoError(t, s.TransitionStatus(1, node.StatusNotReached, node.StatusInProgress))

	// The second claimer observes a stale status and loses.
	err := s.TransitionStatus(1, node.StatusNotReached, node.StatusInProgress)
	assert.True(t, apperrors.IsConflict(err))

	err = s.TransitionStatus(99, node.StatusNotReached, node.StatusInProgress)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestApplyJudgment(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, 1, node.LevelA1)

	require.NoError(t, s.ApplyJudgment(1, false, 0))
	n, _ := s.GetNode(1)
	assert.Equal(t, node.StatusFailed, n.Status)
	require.NotNil(t, n.Score)
	assert.Equal(t, 0, *n.Score)
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := diamond(t)
	snapshot := s.Snapshot()
	snapshot[1].Status = node.StatusPassed

	fresh, _ := s.GetNode(1)
	assert.Equal(t, node.StatusNotReached, fresh.Status)
}
