// Copyright © 2024 Galvanized Logic Inc.

package shape

import "github.com/gazed/vu/math/lin"

// VoronoiRegion names one of a tetrahedron's fifteen Voronoi regions: four
// vertex regions, six edge regions, four face regions, and the interior.
// Which region a point falls in determines which feature its closest point
// lies on.
type VoronoiRegion int

const (
	RegionVertexA VoronoiRegion = iota
	RegionVertexB
	RegionVertexC
	RegionVertexD
	RegionEdgeAB
	RegionEdgeAC
	RegionEdgeAD
	RegionEdgeBC
	RegionEdgeBD
	RegionEdgeCD
	RegionFaceABC
	RegionFaceABD
	RegionFaceACD
	RegionFaceBCD
	RegionInterior
)

func (r VoronoiRegion) String() string {
	switch r {
	case RegionVertexA:
		return "vertex A"
	case RegionVertexB:
		return "vertex B"
	case RegionVertexC:
		return "vertex C"
	case RegionVertexD:
		return "vertex D"
	case RegionEdgeAB:
		return "edge AB"
	case RegionEdgeAC:
		return "edge AC"
	case RegionEdgeAD:
		return "edge AD"
	case RegionEdgeBC:
		return "edge BC"
	case RegionEdgeBD:
		return "edge BD"
	case RegionEdgeCD:
		return "edge CD"
	case RegionFaceABC:
		return "face ABC"
	case RegionFaceABD:
		return "face ABD"
	case RegionFaceACD:
		return "face ACD"
	case RegionFaceBCD:
		return "face BCD"
	default:
		return "interior"
	}
}

// Tetrahedron is a rigid four-point convex solid, used here purely for
// closest-point queries rather than as a pipeline Shape: it has no AABB or
// support-point method of its own since nothing in the broad or narrow
// phase needs to dispatch on it.
type Tetrahedron struct {
	A, B, C, D lin.V3
}

func sub3(a, b lin.V3) lin.V3 { return lin.V3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func add3(a, b lin.V3) lin.V3 { return lin.V3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }
func scale3(a lin.V3, s float64) lin.V3 {
	return lin.V3{X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}
func dot3(a, b lin.V3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func cross3(a, b lin.V3) lin.V3 {
	return lin.V3{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}
func distSqr3(a, b lin.V3) float64 {
	d := sub3(a, b)
	return dot3(d, d)
}

// pointOutsidePlane reports whether p lies on the opposite side of the
// plane through a, b, c from reference point ref (the tetrahedron's fourth
// vertex), per Ericson's "Real-Time Collision Detection" 5.1.6.
func pointOutsidePlane(p, a, b, c, ref lin.V3) bool {
	n := cross3(sub3(b, a), sub3(c, a))
	signP := dot3(sub3(p, a), n)
	signRef := dot3(sub3(ref, a), n)
	return signP*signRef < 0
}

// closestPointOnTriangle is Ericson's ClosestPtPointTriangle, generalized to
// report which of the triangle's seven Voronoi regions (three vertices,
// three edges, one face) the closest point falls in, tagged by the caller's
// choice of global region labels for that face's features.
func closestPointOnTriangle(p, a, b, c lin.V3, tagA, tagB, tagC, tagAB, tagBC, tagCA, tagFace VoronoiRegion) (lin.V3, VoronoiRegion) {
	ab := sub3(b, a)
	ac := sub3(c, a)
	ap := sub3(p, a)
	d1 := dot3(ab, ap)
	d2 := dot3(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a, tagA
	}

	bp := sub3(p, b)
	d3 := dot3(ab, bp)
	d4 := dot3(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b, tagB
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return add3(a, scale3(ab, v)), tagAB
	}

	cp := sub3(p, c)
	d5 := dot3(ab, cp)
	d6 := dot3(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c, tagC
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return add3(a, scale3(ac, w)), tagCA
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return add3(b, scale3(sub3(c, b), w)), tagBC
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return add3(a, add3(scale3(ab, v), scale3(ac, w))), tagFace
}

// ClosestPoint returns the point on t nearest to p, which of the 15 Voronoi
// regions it belongs to, and the squared distance from p to that point. A
// point strictly inside t is its own closest point, in the interior region,
// at distance zero.
func (t Tetrahedron) ClosestPoint(p lin.V3) (closest lin.V3, region VoronoiRegion, distSqr float64) {
	type face struct {
		a, b, c                     lin.V3
		tagA, tagB, tagC             VoronoiRegion
		tagAB, tagBC, tagCA          VoronoiRegion
		tagFace                      VoronoiRegion
	}
	faces := [4]face{
		{t.A, t.B, t.C, RegionVertexA, RegionVertexB, RegionVertexC, RegionEdgeAB, RegionEdgeBC, RegionEdgeAC, RegionFaceABC},
		{t.A, t.C, t.D, RegionVertexA, RegionVertexC, RegionVertexD, RegionEdgeAC, RegionEdgeCD, RegionEdgeAD, RegionFaceACD},
		{t.A, t.D, t.B, RegionVertexA, RegionVertexD, RegionVertexB, RegionEdgeAD, RegionEdgeBD, RegionEdgeAB, RegionFaceABD},
		{t.B, t.D, t.C, RegionVertexB, RegionVertexD, RegionVertexC, RegionEdgeBD, RegionEdgeCD, RegionEdgeBC, RegionFaceBCD},
	}
	opposite := [4]lin.V3{t.D, t.B, t.C, t.A}

	inside := true
	best := p
	bestRegion := RegionInterior
	bestDist := 0.0
	found := false

	for i, f := range faces {
		if !pointOutsidePlane(p, f.a, f.b, f.c, opposite[i]) {
			continue
		}
		inside = false
		cp, r := closestPointOnTriangle(p, f.a, f.b, f.c, f.tagA, f.tagB, f.tagC, f.tagAB, f.tagBC, f.tagCA, f.tagFace)
		d := distSqr3(p, cp)
		if !found || d < bestDist {
			found = true
			bestDist = d
			best = cp
			bestRegion = r
		}
	}

	if inside {
		return p, RegionInterior, 0
	}
	return best, bestRegion, bestDist
}
