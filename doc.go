// Copyright © 2024 Galvanized Logic Inc.

// Package collide is the collision-detection core of a 2D/3D physics
// pipeline: a dynamic bounding-volume broad phase, a shape-pair-dispatched
// narrow phase, and the collision world that glues the two together and
// publishes contact/proximity events as objects move.
//
// collide is the continuation of vu/physics's broad.go/collider.go split,
// generalized onto a real dynamic bounding-volume tree and factored so the
// broad phase, narrow phase, and dispatcher can be exercised independently
// of the rest of vu's rigid-body solver. It does not apply forces, compute
// masses, or resolve constraints — see vu/physics for that.
//
//	collide              : broad.go, collider.go (vu/physics lineage)
//	dbvt.go              : new, generalizing broad.go's pair bookkeeping
//	                       onto a tree instead of all-pairs distance checks
//	broadphase.go        : broad.go
//	dispatch.go, gjk.go  : collider.go, gjk.go, support.go
//	narrowphase.go       : collider.go's contact dispatch, generalized to
//	                       also cover proximity queries
//	world.go             : new, the object store and orchestration spec.md
//	                       §4.5 asks for
//
// Vector, quaternion, and transform math (lin.V3, lin.Q, lin.T) is not
// reimplemented here; it comes straight from vu's own math/lin package.
package collide
