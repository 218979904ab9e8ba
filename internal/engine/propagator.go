// Package engine drives assessment sessions over the knowledge graph:
// a state machine that picks the next node to ask, consults the
// evaluation oracle, and propagates judgments back into node state.
package engine

import (
	"sort"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
)

// The status propagation policy lives in pure functions over a graph
// snapshot so it can be tested without stores, sessions or locks. It is
// total (bounded by the finite node set) and deterministic (ties break
// by ascending id), which is what makes traversal reproducible: the
// same graph and the same judgment sequence always walk the same path.

// selectStart picks the session's first node: the smallest-id root
// (no parents) at the requested level that is not disabled. A root
// another session is currently asking is not claimable.
func selectStart(nodes map[int]*node.Node, level node.Level) (int, bool) {
	best := 0
	found := false
	for _, n := range nodes {
		if !n.IsRoot() || n.Level != level || n.Disabled() || n.Status == node.StatusInProgress {
			continue
		}
		if !found || n.ID < best {
			best = n.ID
			found = true
		}
	}
	return best, found
}

// selectNext picks the node to ask after judging node justID.
//
// On a pass, the smallest-id unreached child at the session level is
// preferred. On a fail, or when the branch is exhausted, the fallback
// search looks for an independent branch: any unreached node at the
// level whose parents are all already passed (trivially true for
// roots). No candidate in either step means the session completes.
func selectNext(nodes map[int]*node.Node, justID int, passed bool, level node.Level) (int, bool) {
	if passed {
		if id, ok := nextChild(nodes, justID, level); ok {
			return id, true
		}
	}
	return fallback(nodes, level)
}

// nextChild returns the smallest-id eligible child of parentID.
func nextChild(nodes map[int]*node.Node, parentID int, level node.Level) (int, bool) {
	parent, ok := nodes[parentID]
	if !ok {
		return 0, false
	}
	children := append([]int(nil), parent.ChildNodes...)
	sort.Ints(children)
	for _, id := range children {
		child, ok := nodes[id]
		if !ok {
			continue
		}
		if eligible(child, level) {
			return id, true
		}
	}
	return 0, false
}

// fallback scans the entire node set for the smallest-id eligible node
// whose prerequisites are met, allowing traversal to resume at an
// independent branch of the DAG.
func fallback(nodes map[int]*node.Node, level node.Level) (int, bool) {
	best := 0
	found := false
	for _, n := range nodes {
		if !eligible(n, level) || !parentsPassed(nodes, n) {
			continue
		}
		if !found || n.ID < best {
			best = n.ID
			found = true
		}
	}
	return best, found
}

// eligible reports whether a node can be selected at all: right level,
// never visited, not disabled.
func eligible(n *node.Node, level node.Level) bool {
	return n.Level == level && n.Status == node.StatusNotReached
}

// parentsPassed reports whether every parent of n is already passed.
// A failed parent keeps its children locked.
func parentsPassed(nodes map[int]*node.Node, n *node.Node) bool {
	for _, pid := range n.ParentNodes {
		parent, ok := nodes[pid]
		if !ok {
			continue
		}
		if parent.Status != node.StatusPassed {
			return false
		}
	}
	return true
}

// judgedStatus maps a judgment to the node status it produces.
func judgedStatus(passed bool) node.Status {
	if passed {
		return node.StatusPassed
	}
	return node.StatusFailed
}
