package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
)

func testNode(id int, level node.Level, status node.Status, parents, children []int) *node.Node {
	return &node.Node{
		ID:          id,
		Name:        "node",
		Level:       level,
		Status:      status,
		ParentNodes: parents,
		ChildNodes:  children,
	}
}

// fork is the smallest interesting graph: root 1 with leaf children 2 and 3.
func fork() map[int]*node.Node {
	return map[int]*node.Node{
		1: testNode(1, node.LevelA1, node.StatusNotReached, nil, []int{2, 3}),
		2: testNode(2, node.LevelA1, node.StatusNotReached, []int{1}, nil),
		3: testNode(3, node.LevelA1, node.StatusNotReached, []int{1}, nil),
	}
}

func TestSelectStart_SmallestEligibleRoot(t *testing.T) {
	nodes := fork()
	id, ok := selectStart(nodes, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestSelectStart_LevelFilter(t *testing.T) {
	nodes := fork()
	_, ok := selectStart(nodes, node.LevelA2)
	assert.False(t, ok)
}

func TestSelectStart_SkipsDisabledRoot(t *testing.T) {
	nodes := map[int]*node.Node{
		1: testNode(1, node.LevelA1, node.StatusDisabled, nil, nil),
		3: testNode(3, node.LevelA1, node.StatusNotReached, nil, nil),
	}
	id, ok := selectStart(nodes, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestSelectNext_PassPrefersSmallestChild(t *testing.T) {
	nodes := fork()
	nodes[1].Status = node.StatusPassed

	id, ok := selectNext(nodes, 1, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestSelectNext_PassSkipsWrongLevelChild(t *testing.T) {
	nodes := fork()
	nodes[1].Status = node.StatusPassed
	nodes[2].Level = node.LevelA2

	id, ok := selectNext(nodes, 1, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestSelectNext_PassSkipsDisabledChild(t *testing.T) {
	nodes := fork()
	nodes[1].Status = node.StatusPassed
	nodes[2].Status = node.StatusDisabled

	id, ok := selectNext(nodes, 1, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestSelectNext_FailDoesNotUnlockChildren(t *testing.T) {
	// Root 1 failed; its children stay locked, but independent root 4 is
	// eligible through the fallback.
	nodes := fork()
	nodes[1].Status = node.StatusFailed
	nodes[4] = testNode(4, node.LevelA1, node.StatusNotReached, nil, nil)

	id, ok := selectNext(nodes, 1, false, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 4, id)
}

func TestSelectNext_FailWithNoFallbackCompletes(t *testing.T) {
	nodes := fork()
	nodes[1].Status = node.StatusFailed

	_, ok := selectNext(nodes, 1, false, node.LevelA1)
	assert.False(t, ok)
}

func TestSelectNext_FallbackRequiresAllParentsPassed(t *testing.T) {
	// 4 has parents 2 (passed) and 3 (failed): locked.
	nodes := map[int]*node.Node{
		2: testNode(2, node.LevelA1, node.StatusPassed, nil, []int{4}),
		3: testNode(3, node.LevelA1, node.StatusFailed, nil, []int{4}),
		4: testNode(4, node.LevelA1, node.StatusNotReached, []int{2, 3}, nil),
	}
	_, ok := selectNext(nodes, 3, false, node.LevelA1)
	assert.False(t, ok)

	nodes[3].Status = node.StatusPassed
	id, ok := selectNext(nodes, 3, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 4, id)
}

func TestSelectNext_LeafFallsBackToIndependentBranch(t *testing.T) {
	// After passing leaf 2, traversal resumes at sibling 3.
	nodes := fork()
	nodes[1].Status = node.StatusPassed
	nodes[2].Status = node.StatusPassed

	id, ok := selectNext(nodes, 2, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestSelectNext_FallbackOrdersByID(t *testing.T) {
	nodes := map[int]*node.Node{
		5: testNode(5, node.LevelA1, node.StatusNotReached, nil, nil),
		7: testNode(7, node.LevelA1, node.StatusNotReached, nil, nil),
		9: testNode(9, node.LevelA1, node.StatusPassed, nil, nil),
	}
	id, ok := selectNext(nodes, 9, true, node.LevelA1)
	assert.True(t, ok)
	assert.Equal(t, 5, id)
}

func TestJudgedStatus(t *testing.T) {
	assert.Equal(t, node.StatusPassed, judgedStatus(true))
	assert.Equal(t, node.StatusFailed, judgedStatus(false))
}
