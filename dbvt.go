// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"container/heap"

	"github.com/gazed/vu/math/lin"

	"github.com/gazed/collide/shape"
)

// nodeID indexes into dbvt.nodes. Using a dense index instead of pointers
// keeps the tree's nodes contiguous for locality of motion, the same
// rationale vu/physics's bid (a plain slice index) relies on for bodies.
type nodeID int32

const nilDBVTNode nodeID = -1

// dbvtNode is either a leaf (left == nilDBVTNode, payload valid) or an
// internal node (left/right both valid, payload unused). bv is the node's
// own volume: the stored loose volume for a leaf, the union of both
// children's volumes for an internal node (spec.md §4.1).
type dbvtNode struct {
	bv          shape.AABB
	parent      nodeID
	left, right nodeID
	payload     proxyID
}

// dbvt is the dynamic bounding-volume tree of spec.md §4.1. It is not
// globally rebalanced; it relies on locality of motion plus rebuild-on-
// escape (driven by the broad phase's loose-volume check) to avoid
// long-term degeneration, exactly as the spec prescribes.
type dbvt struct {
	nodes    []dbvtNode
	freeList []nodeID
	root     nodeID
}

func newDBVT() *dbvt {
	return &dbvt{root: nilDBVTNode}
}

func (t *dbvt) isLeaf(n nodeID) bool { return t.nodes[n].left == nilDBVTNode }

func (t *dbvt) allocNode() nodeID {
	if len(t.freeList) > 0 {
		id := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		return id
	}
	t.nodes = append(t.nodes, dbvtNode{})
	return nodeID(len(t.nodes) - 1)
}

func (t *dbvt) freeNode(n nodeID) {
	t.nodes[n] = dbvtNode{}
	t.freeList = append(t.freeList, n)
}

// insert places a new leaf for payload with bounding volume bv, descending
// from the root and at each step choosing the child whose bounding-volume
// growth is smaller (spec.md §4.1). Ties prefer the left child, pinning
// down the "implementer must pin a specific rule" open question in spec.md
// §9 so that event ordering is reproducible across runs.
func (t *dbvt) insert(bv shape.AABB, payload proxyID) nodeID {
	leaf := t.allocNode()
	t.nodes[leaf] = dbvtNode{bv: bv, parent: nilDBVTNode, left: nilDBVTNode, right: nilDBVTNode, payload: payload}

	if t.root == nilDBVTNode {
		t.root = leaf
		return leaf
	}

	sibling := t.root
	for !t.isLeaf(sibling) {
		left, right := t.nodes[sibling].left, t.nodes[sibling].right
		leftGrowth := bv.Union(t.nodes[left].bv).SurfaceArea() - t.nodes[left].bv.SurfaceArea()
		rightGrowth := bv.Union(t.nodes[right].bv).SurfaceArea() - t.nodes[right].bv.SurfaceArea()
		if leftGrowth <= rightGrowth {
			sibling = left
		} else {
			sibling = right
		}
	}

	oldParent := t.nodes[sibling].parent
	newParent := t.allocNode()
	t.nodes[newParent] = dbvtNode{
		parent: oldParent,
		left:   sibling,
		right:  leaf,
		bv:     bv.Union(t.nodes[sibling].bv),
	}
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent == nilDBVTNode {
		t.root = newParent
	} else if t.nodes[oldParent].left == sibling {
		t.nodes[oldParent].left = newParent
	} else {
		t.nodes[oldParent].right = newParent
	}

	t.refitAncestors(newParent)
	return leaf
}

// remove detaches leaf, promotes its sibling to replace the parent, and
// refits ancestors (spec.md §4.1).
func (t *dbvt) remove(leaf nodeID) {
	parent := t.nodes[leaf].parent
	if parent == nilDBVTNode {
		t.root = nilDBVTNode
		t.freeNode(leaf)
		return
	}

	grandparent := t.nodes[parent].parent
	var sibling nodeID
	if t.nodes[parent].left == leaf {
		sibling = t.nodes[parent].right
	} else {
		sibling = t.nodes[parent].left
	}

	if grandparent == nilDBVTNode {
		t.root = sibling
		t.nodes[sibling].parent = nilDBVTNode
	} else {
		if t.nodes[grandparent].left == parent {
			t.nodes[grandparent].left = sibling
		} else {
			t.nodes[grandparent].right = sibling
		}
		t.nodes[sibling].parent = grandparent
		t.refitAncestors(grandparent)
	}

	t.freeNode(parent)
	t.freeNode(leaf)
}

func (t *dbvt) refitAncestors(n nodeID) {
	for n != nilDBVTNode {
		left, right := t.nodes[n].left, t.nodes[n].right
		t.nodes[n].bv = t.nodes[left].bv.Union(t.nodes[right].bv)
		n = t.nodes[n].parent
	}
}

// setLeafBV replaces a leaf's stored volume in place and refits its
// ancestors, without touching tree shape. The broad phase does not use it:
// a proxy whose tight volume escapes its loose volume is moved by
// remove+insert instead (spec.md §4.1's set_bv).
func (t *dbvt) setLeafBV(leaf nodeID, bv shape.AABB) {
	t.nodes[leaf].bv = bv
	t.refitAncestors(t.nodes[leaf].parent)
}

func (t *dbvt) leafBV(leaf nodeID) shape.AABB { return t.nodes[leaf].bv }

// visitOverlapping performs the depth-first, branch-pruning traversal
// spec.md §4.1 specifies, visiting children left-before-right so that
// traversal order (and therefore emitted event order) is deterministic.
func (t *dbvt) visitOverlapping(bv shape.AABB, f func(payload proxyID)) {
	if t.root == nilDBVTNode {
		return
	}
	var visit func(n nodeID)
	visit = func(n nodeID) {
		node := &t.nodes[n]
		if !node.bv.Overlaps(bv) {
			return
		}
		if t.isLeaf(n) {
			f(node.payload)
			return
		}
		visit(node.left)
		visit(node.right)
	}
	visit(t.root)
}

// visitRay and visitPoint generalize visitOverlapping's prune-and-recurse
// shape to the ray and point queries spec.md §6 exposes
// (interferences_with_ray, interferences_with_point), pruning on the
// node's own volume instead of intersection with another AABB.
func (t *dbvt) visitRay(origin, dir lin.V3, tmax float64, f func(payload proxyID)) {
	if t.root == nilDBVTNode {
		return
	}
	var visit func(n nodeID)
	visit = func(n nodeID) {
		node := &t.nodes[n]
		if !node.bv.IntersectsRay(origin, dir, tmax) {
			return
		}
		if t.isLeaf(n) {
			f(node.payload)
			return
		}
		visit(node.left)
		visit(node.right)
	}
	visit(t.root)
}

func (t *dbvt) visitPoint(p lin.V3, f func(payload proxyID)) {
	if t.root == nilDBVTNode {
		return
	}
	var visit func(n nodeID)
	visit = func(n nodeID) {
		node := &t.nodes[n]
		if !node.bv.ContainsPoint(p) {
			return
		}
		if t.isLeaf(n) {
			f(node.payload)
			return
		}
		visit(node.left)
		visit(node.right)
	}
	visit(t.root)
}

// bfsItem is one entry in bestFirstSearch's priority queue.
type bfsItem struct {
	node     nodeID
	priority float64
}

type bfsQueue []bfsItem

func (q bfsQueue) Len() int            { return len(q) }
func (q bfsQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q bfsQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *bfsQueue) Push(x any)         { *q = append(*q, x.(bfsItem)) }
func (q *bfsQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// bestFirstSearch is the priority-ordered traversal spec.md §4.1 specifies
// for time-of-impact and nearest-feature queries: lowerBound gives a cheap
// per-node cost that must never exceed the true cost of anything in that
// subtree, exact gives the true cost of a leaf's payload. The leaf
// minimizing exact cost is returned, pruning any node whose lower bound
// exceeds the best exact cost seen so far.
func (t *dbvt) bestFirstSearch(lowerBound func(bv shape.AABB) float64, exact func(payload proxyID) float64) (proxyID, bool) {
	if t.root == nilDBVTNode {
		return 0, false
	}

	pq := &bfsQueue{{node: t.root, priority: lowerBound(t.nodes[t.root].bv)}}
	heap.Init(pq)

	best := false
	var bestPayload proxyID
	bestCost := 0.0

	for pq.Len() > 0 {
		item := heap.Pop(pq).(bfsItem)
		if best && item.priority >= bestCost {
			// Nothing left in the queue can beat the best exact
			// cost found so far: every remaining bound is >= this
			// one since it's a min-heap.
			break
		}
		node := &t.nodes[item.node]
		if t.isLeaf(item.node) {
			cost := exact(node.payload)
			if !best || cost < bestCost {
				best = true
				bestCost = cost
				bestPayload = node.payload
			}
			continue
		}
		left, right := node.left, node.right
		heap.Push(pq, bfsItem{node: left, priority: lowerBound(t.nodes[left].bv)})
		heap.Push(pq, bfsItem{node: right, priority: lowerBound(t.nodes[right].bv)})
	}
	return bestPayload, best
}
