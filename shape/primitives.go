// Copyright © 2024 Galvanized Logic Inc.

package shape

import (
	"math"

	"github.com/gazed/vu/math/lin"
)

// Ball is a sphere centered at the shape's local origin. Modeled on
// vu/physics/shape.go's sphere and collider.go's collider_Sphere.
type Ball struct {
	Radius float64
}

// NewBall creates a Ball shape. A non-positive radius panics: a
// degenerate ball is a caller bug, not a runtime condition to tolerate.
func NewBall(radius float64) *Ball {
	if radius <= 0 {
		panic("shape: ball radius must be positive")
	}
	return &Ball{Radius: radius}
}

func (b *Ball) Tag() Tag                     { return BallTag }
func (b *Ball) BoundingSphereRadius() float64 { return b.Radius }

func (b *Ball) AABB(t *lin.T, margin float64) AABB {
	r := b.Radius + margin
	loc := t.Loc
	return AABB{
		Min: lin.V3{X: loc.X - r, Y: loc.Y - r, Z: loc.Z - r},
		Max: lin.V3{X: loc.X + r, Y: loc.Y + r, Z: loc.Z + r},
	}
}

// SupportPoint returns the furthest point on the ball along d, matching
// vu/physics/support.go's sphere branch of support_point.
func (b *Ball) SupportPoint(t *lin.T, d lin.V3) lin.V3 {
	dir := lin.NewV3().Set(&d)
	if dir.AeqZ() {
		dir.SetS(1, 0, 0)
	} else {
		dir.Unit()
	}
	return lin.V3{
		X: t.Loc.X + dir.X*b.Radius,
		Y: t.Loc.Y + dir.Y*b.Radius,
		Z: t.Loc.Z + dir.Z*b.Radius,
	}
}

// Box is an axis-aligned-in-local-space box centered at the shape's local
// origin and defined by half-extents, matching vu/physics/shape.go's box.
type Box struct {
	Hx, Hy, Hz float64
}

// NewBox creates a Box shape from half-extents. Non-positive half-extents
// panic for the same reason NewBall rejects a non-positive radius.
func NewBox(hx, hy, hz float64) *Box {
	if hx <= 0 || hy <= 0 || hz <= 0 {
		panic("shape: box half-extents must be positive")
	}
	return &Box{Hx: hx, Hy: hy, Hz: hz}
}

func (b *Box) Tag() Tag { return BoxTag }

func (b *Box) BoundingSphereRadius() float64 {
	return math.Sqrt(b.Hx*b.Hx + b.Hy*b.Hy + b.Hz*b.Hz)
}

// AABB returns the world-space bounds of the transformed box. This
// follows the same basis-vector projection vu/physics/shape.go's
// box.Aabb uses rather than transforming all eight corners, since the
// projection is exact for a box and cheaper.
func (b *Box) AABB(t *lin.T, margin float64) AABB {
	xx, xy, xz := lin.MultSQ(1, 0, 0, t.Rot)
	yx, yy, yz := lin.MultSQ(0, 1, 0, t.Rot)
	zx, zy, zz := lin.MultSQ(0, 0, 1, t.Rot)
	xx, xy, xz = math.Abs(xx), math.Abs(xy), math.Abs(xz)
	yx, yy, yz = math.Abs(yx), math.Abs(yy), math.Abs(yz)
	zx, zy, zz = math.Abs(zx), math.Abs(zy), math.Abs(zz)

	hx, hy, hz := b.Hx+margin, b.Hy+margin, b.Hz+margin
	ex := hx*xx + hy*xy + hz*xz
	ey := hx*yx + hy*yy + hz*yz
	ez := hx*zx + hy*zy + hz*zz

	return AABB{
		Min: lin.V3{X: t.Loc.X - ex, Y: t.Loc.Y - ey, Z: t.Loc.Z - ez},
		Max: lin.V3{X: t.Loc.X + ex, Y: t.Loc.Y + ey, Z: t.Loc.Z + ez},
	}
}

// SupportPoint returns the furthest box vertex along d by picking, per
// local axis, whichever half-extent sign maximizes the dot product.
func (b *Box) SupportPoint(t *lin.T, d lin.V3) lin.V3 {
	lx, ly, lz := t.InvS(d.X+t.Loc.X, d.Y+t.Loc.Y, d.Z+t.Loc.Z)
	sx, sy, sz := b.Hx, b.Hy, b.Hz
	if lx < 0 {
		sx = -sx
	}
	if ly < 0 {
		sy = -sy
	}
	if lz < 0 {
		sz = -sz
	}
	wx, wy, wz := t.AppS(sx, sy, sz)
	return lin.V3{X: wx, Y: wy, Z: wz}
}

// Compound wraps a set of children, each placed by a fixed local
// transform. Its own bounding volume is the union of its children's. This
// is new relative to vu/physics (whose colliders are flat hull-or-sphere),
// grounded on the per-face delegation loop in collider_convex_hull_create
// and on gobvh's child-traversal pattern for "overlap then recurse."
type Compound struct {
	locals []lin.T
	shapes []Shape
}

// NewCompound creates a compound shape from parallel slices of local
// transforms and child shapes. The slices must be the same length.
func NewCompound(locals []lin.T, shapes []Shape) *Compound {
	if len(locals) != len(shapes) {
		panic("shape: compound locals and shapes must have equal length")
	}
	return &Compound{locals: locals, shapes: shapes}
}

func (c *Compound) Tag() Tag         { return CompoundTag }
func (c *Compound) NumChildren() int { return len(c.shapes) }

func (c *Compound) ChildTransform(i int) lin.T { return c.locals[i] }
func (c *Compound) ChildShape(i int) Shape     { return c.shapes[i] }

func (c *Compound) BoundingSphereRadius() float64 {
	max := 0.0
	for i, s := range c.shapes {
		d := c.locals[i].Loc.Len() + s.BoundingSphereRadius()
		if d > max {
			max = d
		}
	}
	return max
}

func (c *Compound) AABB(t *lin.T, margin float64) AABB {
	var box AABB
	for i, s := range c.shapes {
		child := worldTransform(t, &c.locals[i])
		childBox := s.AABB(&child, 0)
		if i == 0 {
			box = childBox
		} else {
			box = box.Union(childBox)
		}
	}
	return box.Inflate(margin)
}

// worldTransform composes a parent transform with a child's local
// transform, following vu/physics/math/lin.T.Mult's convention.
func worldTransform(parent, local *lin.T) lin.T {
	result := lin.NewT()
	result.Mult(parent, local)
	return *result
}
