// Copyright © 2024 Galvanized Logic Inc.

// Package shape is the geometry collaborator consumed by the collide
// pipeline. It is deliberately small: collide only needs a bounding volume,
// a type tag, and a support mapping per shape. Real games plug in richer
// primitives (capsules, meshes, convex hulls with full half-edge adjacency)
// the same way vu/physics's collider.go does for its hull type; shape keeps
// just enough geometry to make the pipeline's built-in dispatcher factories
// exercise real math instead of stubs.
package shape

import (
	"math"

	"github.com/gazed/vu/math/lin"
)

// Tag identifies a shape's concrete type. Tags are stable across runs and
// are what the shape-pair dispatcher keys its registries on (spec §4.3).
// User shapes extend this enumeration starting at UserTag.
type Tag uint8

const (
	BallTag Tag = iota
	BoxTag
	CompoundTag

	// UserTag is the first tag value available to shapes defined outside
	// this package.
	UserTag Tag = 16
)

func (t Tag) String() string {
	switch t {
	case BallTag:
		return "ball"
	case BoxTag:
		return "box"
	case CompoundTag:
		return "compound"
	default:
		return "user"
	}
}

// Shape is the uniform interface the collision pipeline depends on. It
// carries no position; combine it with a *lin.T to place it in the world.
type Shape interface {
	// Tag reports the shape's exact type so the dispatcher can pick a
	// specialized algorithm factory.
	Tag() Tag

	// AABB returns the axis-aligned bounding box of the shape once
	// transform is applied, inflated on every side by margin.
	AABB(transform *lin.T, margin float64) AABB

	// BoundingSphereRadius is a cheap, transform-independent over-
	// estimate of the shape's extent from its own origin, used by the
	// built-in proximity algorithm to classify clearly separated pairs
	// before falling back to GJK.
	BoundingSphereRadius() float64
}

// Support is implemented by shapes usable with the GJK-based convex/convex
// dispatcher. It mirrors vu/physics's support_point: the furthest point of
// the shape, in world space, along direction d.
type Support interface {
	Shape
	SupportPoint(transform *lin.T, d lin.V3) lin.V3
}

// Children is implemented by compound shapes so the composite dispatcher
// (spec §4.3) can delegate per child without the core knowing the concrete
// compound type.
type Children interface {
	Shape
	NumChildren() int
	ChildTransform(i int) lin.T
	ChildShape(i int) Shape
}

// AABB is an axis-aligned bounding box. It is the bounding volume the DBVT
// stores and the broad phase inflates by its looseness margin (spec's Loose
// BV). Modeled on vu/physics/shape.go's Abox.
type AABB struct {
	Min, Max lin.V3
}

// Overlaps returns true if a and b intersect on every axis. Touching along
// a single point, edge, or face (zero-width overlap) does not count,
// matching vu/physics's Abox.Overlaps.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max.X > b.Min.X && a.Min.X < b.Max.X &&
		a.Max.Y > b.Min.Y && a.Min.Y < b.Max.Y &&
		a.Max.Z > b.Min.Z && a.Min.Z < b.Max.Z
}

// Contains returns true if b is entirely inside a (used by the DBVT to
// decide whether a loose volume still covers a moved tight volume).
func (a AABB) Contains(b AABB) bool {
	return a.Min.X <= b.Min.X && a.Max.X >= b.Max.X &&
		a.Min.Y <= b.Min.Y && a.Max.Y >= b.Max.Y &&
		a.Min.Z <= b.Min.Z && a.Max.Z >= b.Max.Z
}

// Union returns the smallest AABB enclosing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: lin.V3{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: lin.V3{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

// Inflate returns a with each side extended by margin.
func (a AABB) Inflate(margin float64) AABB {
	return AABB{
		Min: lin.V3{X: a.Min.X - margin, Y: a.Min.Y - margin, Z: a.Min.Z - margin},
		Max: lin.V3{X: a.Max.X + margin, Y: a.Max.Y + margin, Z: a.Max.Z + margin},
	}
}

// SurfaceArea is the growth heuristic the DBVT minimizes on insert,
// matching the surface-area heuristic spec.md §4.1 calls for.
func (a AABB) SurfaceArea() float64 {
	d := lin.V3{X: a.Max.X - a.Min.X, Y: a.Max.Y - a.Min.Y, Z: a.Max.Z - a.Min.Z}
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// Center returns the AABB's midpoint.
func (a AABB) Center() lin.V3 {
	return lin.V3{X: (a.Min.X + a.Max.X) / 2, Y: (a.Min.Y + a.Max.Y) / 2, Z: (a.Min.Z + a.Max.Z) / 2}
}

// ContainsPoint returns true if p lies within a, inclusive of the boundary.
func (a AABB) ContainsPoint(p lin.V3) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

// IntersectsRay reports whether the ray from origin in direction dir (unit
// length not required) enters a before tmax, using the standard slab test.
func (a AABB) IntersectsRay(origin, dir lin.V3, tmax float64) bool {
	tmin := 0.0
	for axis := 0; axis < 3; axis++ {
		var o, d, lo, hi float64
		switch axis {
		case 0:
			o, d, lo, hi = origin.X, dir.X, a.Min.X, a.Max.X
		case 1:
			o, d, lo, hi = origin.Y, dir.Y, a.Min.Y, a.Max.Y
		default:
			o, d, lo, hi = origin.Z, dir.Z, a.Min.Z, a.Max.Z
		}
		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		inv := 1 / d
		t0, t1 := (lo-o)*inv, (hi-o)*inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
