// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"math"

	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// ContactPoint is one point of a contact manifold: the witness points on
// each shape's surface, the separating normal (pointing from the first
// shape towards the second), and the penetration depth along it.
type ContactPoint struct {
	PointOnFirst, PointOnSecond lin.V3
	Normal                      lin.V3
	Depth                       float64
}

// ContactAlgorithm is the stateful per-pair updater spec.md §4.4 requires: a
// contact-algorithm instance owns whatever working state it needs (a GJK
// simplex, a cached separating axis) across ticks, rather than recomputing
// from scratch every call.
type ContactAlgorithm interface {
	Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, prediction float64)
	NumContacts() int
	Contacts() []ContactPoint
}

// ProximityAlgorithm is ContactAlgorithm's counterpart for the three-valued
// proximity relation.
type ProximityAlgorithm interface {
	Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, margin float64)
	Proximity() ProximityState
}

type tagPair struct{ a, b shape.Tag }

// ContactDispatcher maps an ordered pair of shape tags to a factory
// producing a fresh ContactAlgorithm, per spec.md §4.3. Lookup tries
// (a, b), then (b, a); a hit on the reversed order reports swapped so a
// caller invoking an order-sensitive algorithm knows to flip its own
// arguments. The built-in factories registered by NewContactDispatcher are
// all symmetric in which argument is first, so none currently need it, but
// the contract exists for algorithms that aren't.
type ContactDispatcher struct {
	factories map[tagPair]func() ContactAlgorithm
}

// NewContactDispatcher returns a dispatcher pre-loaded with the three
// built-in strategies spec.md §4.3 calls out: sphere/sphere closed form,
// convex/convex via GJK+EPA, and composite/any delegation (handled as a
// dispatch-time special case below rather than a registry entry, since a
// compound shape must pair with every tag, not one fixed tag).
func NewContactDispatcher() *ContactDispatcher {
	d := &ContactDispatcher{factories: map[tagPair]func() ContactAlgorithm{}}
	_ = d.Register(shape.BallTag, shape.BallTag, func() ContactAlgorithm { return &sphereSphereContact{} })
	_ = d.Register(shape.BallTag, shape.BoxTag, newConvexContact)
	_ = d.Register(shape.BoxTag, shape.BoxTag, newConvexContact)
	return d
}

// Register adds or replaces the factory for the ordered pair (a, b).
// Returns ErrReservedShapeTag if either tag is shape.CompoundTag, since
// composite dispatch is handled as a dispatch-time special case rather
// than a registry entry and a factory registered under CompoundTag would
// never be consulted.
func (d *ContactDispatcher) Register(a, b shape.Tag, factory func() ContactAlgorithm) error {
	if a == shape.CompoundTag || b == shape.CompoundTag {
		return ErrReservedShapeTag
	}
	d.factories[tagPair{a, b}] = factory
	return nil
}

// New produces a fresh algorithm instance for tags (a, b), or ok=false if
// neither orientation has a registered factory and neither tag is
// CompoundTag.
func (d *ContactDispatcher) New(a, b shape.Tag) (algo ContactAlgorithm, swapped, ok bool) {
	if a == shape.CompoundTag || b == shape.CompoundTag {
		return newCompositeContact(d), false, true
	}
	if f, found := d.factories[tagPair{a, b}]; found {
		return f(), false, true
	}
	if f, found := d.factories[tagPair{b, a}]; found {
		return f(), true, true
	}
	return nil, false, false
}

// ProximityDispatcher is ContactDispatcher's counterpart for proximity
// algorithms.
type ProximityDispatcher struct {
	factories map[tagPair]func() ProximityAlgorithm
}

// NewProximityDispatcher returns a dispatcher pre-loaded with a single
// built-in: a bounding-sphere/GJK hybrid that works for any pair of Shape
// values, since proximity (unlike contacts) doesn't need a closed-form
// fast path to be affordable.
func NewProximityDispatcher() *ProximityDispatcher {
	d := &ProximityDispatcher{factories: map[tagPair]func() ProximityAlgorithm{}}
	_ = d.Register(shape.BallTag, shape.BallTag, newGenericProximity)
	_ = d.Register(shape.BallTag, shape.BoxTag, newGenericProximity)
	_ = d.Register(shape.BoxTag, shape.BoxTag, newGenericProximity)
	return d
}

// Register adds or replaces the factory for the ordered pair (a, b).
// Returns ErrReservedShapeTag if either tag is shape.CompoundTag; see
// ContactDispatcher.Register.
func (d *ProximityDispatcher) Register(a, b shape.Tag, factory func() ProximityAlgorithm) error {
	if a == shape.CompoundTag || b == shape.CompoundTag {
		return ErrReservedShapeTag
	}
	d.factories[tagPair{a, b}] = factory
	return nil
}

func (d *ProximityDispatcher) New(a, b shape.Tag) (algo ProximityAlgorithm, swapped, ok bool) {
	if a == shape.CompoundTag || b == shape.CompoundTag {
		return newCompositeProximity(d), false, true
	}
	if f, found := d.factories[tagPair{a, b}]; found {
		return f(), false, true
	}
	if f, found := d.factories[tagPair{b, a}]; found {
		return f(), true, true
	}
	return nil, false, false
}

// sphereSphereContact is the closed-form ball/ball test ported from
// vu/physics/collider.go's collider_get_contacts sphere branch: running
// GJK+EPA on two spheres is both slower and numerically worse than the
// direct formula.
type sphereSphereContact struct {
	contacts []ContactPoint
}

func (c *sphereSphereContact) Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, prediction float64) {
	c.contacts = c.contacts[:0]
	b1, ok1 := s1.(*shape.Ball)
	b2, ok2 := s2.(*shape.Ball)
	if !ok1 || !ok2 {
		return
	}

	delta := lin.NewV3().Sub(t2.Loc, t1.Loc)
	distSqr := delta.Dot(delta)
	reach := b1.Radius + b2.Radius + prediction
	if distSqr >= reach*reach {
		return
	}

	dist := math.Sqrt(distSqr)
	var normal lin.V3
	if dist > 1e-9 {
		normal = *lin.NewV3().Scale(delta, 1/dist)
	} else {
		normal = lin.V3{X: 0, Y: 0, Z: 1}
	}
	depth := b1.Radius + b2.Radius - dist

	c.contacts = append(c.contacts, ContactPoint{
		PointOnFirst:  lin.V3{X: t1.Loc.X + normal.X*b1.Radius, Y: t1.Loc.Y + normal.Y*b1.Radius, Z: t1.Loc.Z + normal.Z*b1.Radius},
		PointOnSecond: lin.V3{X: t2.Loc.X - normal.X*b2.Radius, Y: t2.Loc.Y - normal.Y*b2.Radius, Z: t2.Loc.Z - normal.Z*b2.Radius},
		Normal:        normal,
		Depth:         depth,
	})
}

func (c *sphereSphereContact) NumContacts() int           { return len(c.contacts) }
func (c *sphereSphereContact) Contacts() []ContactPoint { return c.contacts }

// convexContact drives GJK and, on overlap, EPA over any pair of
// shape.Support implementers — the general path vu/physics/collider.go
// falls back to when both colliders aren't spheres.
type convexContact struct {
	contacts []ContactPoint
}

func newConvexContact() ContactAlgorithm { return &convexContact{} }

// Update reports a contact only when GJK finds the two shapes
// interpenetrating. The prediction argument is not used: shapes separated
// by less than the prediction distance produce no contact, since there is
// no GJK closest-points query here to measure that gap.
func (c *convexContact) Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, prediction float64) {
	c.contacts = c.contacts[:0]
	sup1, ok1 := s1.(shape.Support)
	sup2, ok2 := s2.(shape.Support)
	if !ok1 || !ok2 {
		return
	}

	p1 := supportPair{shape: sup1, transform: t1}
	p2 := supportPair{shape: sup2, transform: t2}
	s, intersecting := gjkIntersect(p1, p2)
	if !intersecting {
		return
	}
	normal, depth, ok := epaPenetration(p1, p2, s)
	if !ok {
		return
	}

	var negNormal lin.V3
	negNormal.Scale(&normal, -1)
	c.contacts = append(c.contacts, ContactPoint{
		PointOnFirst:  sup1.SupportPoint(t1, normal),
		PointOnSecond: sup2.SupportPoint(t2, negNormal),
		Normal:        normal,
		Depth:         depth,
	})
}

func (c *convexContact) NumContacts() int           { return len(c.contacts) }
func (c *convexContact) Contacts() []ContactPoint { return c.contacts }

// genericProximity classifies the three-valued proximity relation for any
// pair of shapes: a cheap bounding-sphere gap settles Disjoint and most
// WithinMargin cases, falling through to exact GJK only when the bounding
// spheres already overlap, to decide WithinMargin vs Intersecting.
type genericProximity struct {
	state ProximityState
}

func newGenericProximity() ProximityAlgorithm { return &genericProximity{} }

func (p *genericProximity) Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, margin float64) {
	gap := t1.Loc.Dist(t2.Loc) - s1.BoundingSphereRadius() - s2.BoundingSphereRadius()
	switch {
	case gap > margin:
		p.state = Disjoint
	case gap > 0:
		p.state = WithinMargin
	default:
		sup1, ok1 := s1.(shape.Support)
		sup2, ok2 := s2.(shape.Support)
		if ok1 && ok2 {
			if _, intersecting := gjkIntersect(supportPair{sup1, t1}, supportPair{sup2, t2}); intersecting {
				p.state = Intersecting
				return
			}
		}
		p.state = WithinMargin
	}
}

func (p *genericProximity) Proximity() ProximityState { return p.state }

// compositeContact delegates to its compound operand's children, one child
// algorithm per overlapping child, cached across ticks by child index so an
// unmoving child doesn't pay to rebuild its algorithm every update. Modeled
// on vu/physics/collider.go's colliders_get_contacts double loop, generalized
// from "flat list of colliders" to "tree of one compound against one other
// shape" per spec.md §4.3's composite/any bullet.
type compositeContact struct {
	dispatcher *ContactDispatcher
	cache      *childAlgoCache[int, ContactAlgorithm]
	contacts   []ContactPoint
}

func newCompositeContact(d *ContactDispatcher) ContactAlgorithm {
	return &compositeContact{dispatcher: d, cache: newChildAlgoCache[int, ContactAlgorithm](64)}
}

func (c *compositeContact) Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, prediction float64) {
	c.contacts = c.contacts[:0]
	if comp, ok := s1.(shape.Children); ok {
		c.delegate(comp, t1, s2, t2, prediction, false)
		return
	}
	if comp, ok := s2.(shape.Children); ok {
		c.delegate(comp, t2, s1, t1, prediction, true)
	}
}

// delegate drives comp's overlapping children against other, appending
// results in (s1, s2) orientation. flip is true when comp was actually the
// second argument to Update, so each child result's points and normal must
// be swapped back before being recorded.
func (c *compositeContact) delegate(comp shape.Children, compT *lin.T, other shape.Shape, otherT *lin.T, prediction float64, flip bool) {
	otherBV := other.AABB(otherT, prediction)
	for i := 0; i < comp.NumChildren(); i++ {
		local := comp.ChildTransform(i)
		childT := lin.NewT()
		childT.Mult(compT, &local)
		child := comp.ChildShape(i)
		if !child.AABB(childT, 0).Overlaps(otherBV) {
			continue
		}

		algo, cached := c.cache.get(i)
		if !cached {
			newAlgo, _, found := c.dispatcher.New(child.Tag(), other.Tag())
			if !found {
				continue
			}
			algo = newAlgo
			c.cache.add(i, algo)
		}

		algo.Update(childT, child, otherT, other, prediction)
		for _, cp := range algo.Contacts() {
			if flip {
				cp.PointOnFirst, cp.PointOnSecond = cp.PointOnSecond, cp.PointOnFirst
				cp.Normal.Scale(&cp.Normal, -1)
			}
			c.contacts = append(c.contacts, cp)
		}
	}
}

func (c *compositeContact) NumContacts() int           { return len(c.contacts) }
func (c *compositeContact) Contacts() []ContactPoint { return c.contacts }

// compositeProximity mirrors compositeContact for the proximity dispatcher:
// the aggregate state is the closest relation any child reaches (Intersecting
// beats WithinMargin beats Disjoint).
type compositeProximity struct {
	dispatcher *ProximityDispatcher
	cache      *childAlgoCache[int, ProximityAlgorithm]
	state      ProximityState
}

func newCompositeProximity(d *ProximityDispatcher) ProximityAlgorithm {
	return &compositeProximity{dispatcher: d, cache: newChildAlgoCache[int, ProximityAlgorithm](64)}
}

func (c *compositeProximity) Update(t1 *lin.T, s1 shape.Shape, t2 *lin.T, s2 shape.Shape, margin float64) {
	c.state = Disjoint
	if comp, ok := s1.(shape.Children); ok {
		c.delegate(comp, t1, s2, t2, margin)
		return
	}
	if comp, ok := s2.(shape.Children); ok {
		c.delegate(comp, t2, s1, t1, margin)
	}
}

func (c *compositeProximity) delegate(comp shape.Children, compT *lin.T, other shape.Shape, otherT *lin.T, margin float64) {
	otherBV := other.AABB(otherT, margin)
	for i := 0; i < comp.NumChildren(); i++ {
		local := comp.ChildTransform(i)
		childT := lin.NewT()
		childT.Mult(compT, &local)
		child := comp.ChildShape(i)
		if !child.AABB(childT, margin).Overlaps(otherBV) {
			continue
		}

		algo, cached := c.cache.get(i)
		if !cached {
			newAlgo, _, found := c.dispatcher.New(child.Tag(), other.Tag())
			if !found {
				continue
			}
			algo = newAlgo
			c.cache.add(i, algo)
		}

		algo.Update(childT, child, otherT, other, margin)
		if algo.Proximity() > c.state {
			c.state = algo.Proximity()
		}
	}
}

func (c *compositeProximity) Proximity() ProximityState { return c.state }
