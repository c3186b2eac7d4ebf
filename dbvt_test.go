// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"testing"

	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

func TestDBVTInsertRemoveShrinksToEmpty(t *testing.T) {
	tree := newDBVT()
	a := tree.insert(cube(0, 0, 0, 1), 1)
	b := tree.insert(cube(10, 0, 0, 1), 2)
	if tree.root == nilDBVTNode {
		t.Fatal("tree should have a root after two inserts")
	}
	tree.remove(a)
	if tree.leafBV(b) != cube(10, 0, 0, 1) {
		t.Errorf("remaining leaf's volume changed after sibling removal: %+v", tree.leafBV(b))
	}
	tree.remove(b)
	if tree.root != nilDBVTNode {
		t.Error("tree should be empty after removing every leaf")
	}
}

func TestDBVTRefitAncestorsOnSetLeafBV(t *testing.T) {
	tree := newDBVT()
	a := tree.insert(cube(0, 0, 0, 1), 1)
	tree.insert(cube(10, 0, 0, 1), 2)

	root := tree.nodes[a].parent
	before := tree.leafBV(root) // internal node's own bv via leafBV helper on any node id

	tree.setLeafBV(a, cube(100, 0, 0, 1))
	after := tree.nodes[root].bv
	if after == before {
		t.Error("root's bounding volume should change after a child leaf's volume grows to cover a new region")
	}
	if !after.Contains(cube(100, 0, 0, 1)) {
		t.Error("root should enclose the leaf's new volume after refit")
	}
}

func TestDBVTVisitOverlappingFindsOnlyIntersecting(t *testing.T) {
	tree := newDBVT()
	tree.insert(cube(0, 0, 0, 1), 1)
	tree.insert(cube(5, 0, 0, 1), 2)
	tree.insert(cube(0.5, 0, 0, 1), 3)

	var hits []proxyID
	tree.visitOverlapping(cube(0, 0, 0, 1), func(p proxyID) { hits = append(hits, p) })
	if len(hits) != 2 {
		t.Fatalf("expected 2 overlapping leaves (1 and 3), got %v", hits)
	}
}

func TestDBVTVisitRayAndVisitPoint(t *testing.T) {
	tree := newDBVT()
	tree.insert(cube(0, 0, 0, 1), 1)
	tree.insert(cube(10, 0, 0, 1), 2)

	var rayHits []proxyID
	tree.visitRay(lin.V3{X: -5}, lin.V3{X: 1}, 100, func(p proxyID) { rayHits = append(rayHits, p) })
	if len(rayHits) != 2 {
		t.Fatalf("a long ray down the x axis should hit both leaves, got %v", rayHits)
	}

	var pointHits []proxyID
	tree.visitPoint(lin.V3{X: 0.2}, func(p proxyID) { pointHits = append(pointHits, p) })
	if len(pointHits) != 1 || pointHits[0] != 1 {
		t.Fatalf("point inside only the first leaf's volume should report just that leaf, got %v", pointHits)
	}
}

func TestDBVTBestFirstSearchPicksMinimumExactCost(t *testing.T) {
	tree := newDBVT()
	tree.insert(cube(0, 0, 0, 1), 1)
	tree.insert(cube(5, 0, 0, 1), 2)
	tree.insert(cube(-3, 0, 0, 1), 3)

	lowerBound := func(bv shape.AABB) float64 {
		c := bv.Center()
		return c.X * c.X
	}
	exact := func(p proxyID) float64 {
		switch p {
		case 1:
			return 0
		case 2:
			return 25
		default:
			return 9
		}
	}
	best, ok := tree.bestFirstSearch(lowerBound, exact)
	if !ok || best != 1 {
		t.Fatalf("bestFirstSearch should pick payload 1 (cost 0), got %v ok=%v", best, ok)
	}
}
