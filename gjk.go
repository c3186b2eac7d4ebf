// Copyright © 2024 Galvanized Logic Inc.

package collide

import (
	"log/slog"
	"math"
	"slices"

	"github.com/gazed/vu/math/lin"
	"github.com/gazed/collide/shape"
)

// simplex is the up-to-4-point set GJK maintains while searching for the
// origin inside the Minkowski difference. Ported from vu/physics/gjk.go's
// gjk_Simplex, renamed to Go field conventions; the point-shuffling logic in
// addToSimplex/doSimplex2/3/4 below is otherwise unchanged from that port.
type simplex struct {
	a, b, c, d lin.V3
	num        int
}

func addToSimplex(s *simplex, point lin.V3) {
	switch s.num {
	case 0:
		s.a = point
	case 1:
		s.b, s.a = s.a, point
	case 2:
		s.c, s.b, s.a = s.b, s.a, point
	case 3:
		s.d, s.c, s.b, s.a = s.c, s.b, s.a, point
	default:
		slog.Error("collide: addToSimplex called with a full simplex")
	}
	s.num++
}

func tripleCross(a, b, c lin.V3) lin.V3 {
	var tc lin.V3
	tc.Cross(&a, &b)
	tc.Cross(&tc, &c)
	return tc
}

func doSimplex2(s *simplex, direction *lin.V3) bool {
	a, b := s.a, s.b
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	if ab.Dot(ao) >= 0 {
		s.a, s.b, s.num = a, b, 2
		*direction = tripleCross(*ab, *ao, *ab)
	} else {
		s.a, s.num = a, 1
		*direction = *ao
	}
	return false
}

func doSimplex3(s *simplex, direction *lin.V3) bool {
	a, b, c := s.a, s.b, s.c
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	ac := lin.NewV3().Sub(&c, &a)
	abc := lin.NewV3().Cross(ab, ac)

	if lin.NewV3().Cross(abc, ac).Dot(ao) >= 0 {
		if ac.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, c, 2
			*direction = tripleCross(*ac, *ao, *ac)
		} else if ab.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			s.a = a
			*direction = *ao
		}
	} else if lin.NewV3().Cross(ab, abc).Dot(ao) >= 0 {
		if ab.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			s.a = a
			*direction = *ao
		}
	} else if abc.Dot(ao) >= 0 {
		s.a, s.b, s.c, s.num = a, b, c, 3
		*direction = *abc
	} else {
		s.a, s.b, s.c, s.num = a, c, b, 3
		*direction = *abc.Neg(abc)
	}
	return false
}

func doSimplex4(s *simplex, direction *lin.V3) bool {
	a, b, c, d := s.a, s.b, s.c, s.d

	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	ac := lin.NewV3().Sub(&c, &a)
	ad := lin.NewV3().Sub(&d, &a)
	abc := lin.NewV3().Cross(ab, ac)
	acd := lin.NewV3().Cross(ac, ad)
	adb := lin.NewV3().Cross(ad, ab)

	var facing uint8
	if abc.Dot(ao) >= 0 {
		facing |= 0x1
	}
	if acd.Dot(ao) >= 0 {
		facing |= 0x2
	}
	if adb.Dot(ao) >= 0 {
		facing |= 0x4
	}

	switch facing {
	case 0x0:
		return true // origin is inside the tetrahedron
	case 0x1:
		*s = simplex{a: a, b: b, c: c, num: 3}
		return doSimplex3(s, direction)
	case 0x2:
		*s = simplex{a: a, b: c, c: d, num: 3}
		return doSimplex3(s, direction)
	case 0x3:
		if ac.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, c, 2
			*direction = tripleCross(*ac, *ao, *ac)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x4:
		*s = simplex{a: a, b: d, c: b, num: 3}
		return doSimplex3(s, direction)
	case 0x5:
		if ab.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x6:
		if ad.Dot(ao) >= 0 {
			s.a, s.b, s.num = a, d, 2
			*direction = tripleCross(*ad, *ao, *ad)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x7:
		s.a, s.num = a, 1
		*direction = *ao
	}
	return false
}

func doSimplexStep(s *simplex, direction *lin.V3) bool {
	switch s.num {
	case 2:
		return doSimplex2(s, direction)
	case 3:
		return doSimplex3(s, direction)
	case 4:
		return doSimplex4(s, direction)
	}
	return false
}

// supportPair wraps a Support shape with the world transform it's placed
// by, so gjkIntersect and epaPenetration don't thread two arguments around
// everywhere they need a support query.
type supportPair struct {
	shape     shape.Support
	transform *lin.T
}

func minkowskiSupport(p1, p2 supportPair, direction lin.V3) lin.V3 {
	s1 := p1.shape.SupportPoint(p1.transform, direction)
	var neg lin.V3
	neg.Scale(&direction, -1)
	s2 := p2.shape.SupportPoint(p2.transform, neg)
	var diff lin.V3
	diff.Sub(&s1, &s2)
	return diff
}

// gjkIntersect runs the GJK simplex algorithm over the Minkowski difference
// of p1 and p2, ported from vu/physics/gjk.go's gjk_collides. It returns the
// terminal simplex (useful as EPA's seed polytope) and whether the origin
// was enclosed, i.e. whether the two shapes overlap.
func gjkIntersect(p1, p2 supportPair) (simplex, bool) {
	var s simplex
	s.a = minkowskiSupport(p1, p2, lin.V3{X: 0, Y: 0, Z: 1})
	s.num = 1
	direction := lin.NewV3().Scale(&s.a, -1)

	const maxIterations = 100
	for i := 0; i < maxIterations; i++ {
		next := minkowskiSupport(p1, p2, *direction)
		if next.Dot(direction) < 0 {
			return s, false
		}
		addToSimplex(&s, next)
		if doSimplexStep(&s, direction) {
			return s, true
		}
	}
	return s, false
}

type faceIndex struct{ x, y, z int }
type edgeIndex struct{ x, y int }

func polytopeFromSimplex(s simplex) ([]lin.V3, []faceIndex) {
	polytope := []lin.V3{s.a, s.b, s.c, s.d}
	faces := []faceIndex{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 1},
		{1, 2, 3},
	}
	return polytope, faces
}

func faceNormalAndDistance(face faceIndex, polytope []lin.V3) (lin.V3, float64) {
	a, b, c := &polytope[face.x], &polytope[face.y], &polytope[face.z]
	ab := lin.NewV3().Sub(b, a)
	ac := lin.NewV3().Sub(c, a)
	n := lin.NewV3().Cross(ab, ac).Unit()

	distance := n.Dot(a)
	if distance < 0 {
		n.Neg(n)
		distance = -distance
		return *n, distance
	}

	for i := range polytope {
		d := n.Dot(&polytope[i])
		if d < -1e-12 || d > 1e-12 {
			if d >= 0 {
				n.Neg(n)
			}
			return *n, distance
		}
	}
	// Every vertex lies on the candidate plane: the polytope is degenerate
	// (coplanar support points). Report it as "no usable face" by returning
	// the maximum distance; the caller's min-distance scan will never pick it.
	return *n, math.MaxFloat64
}

func addEdge(edges []edgeIndex, e edgeIndex) []edgeIndex {
	for i, cur := range edges {
		if (cur.x == e.x && cur.y == e.y) || (cur.x == e.y && cur.y == e.x) {
			return slices.Delete(edges, i, i+1)
		}
	}
	return append(edges, e)
}

func triangleCentroid(a, b, c lin.V3) lin.V3 {
	var sum lin.V3
	sum.Add(&b, &c).Add(&sum, &a)
	sum.Scale(&sum, 1.0/3.0)
	return sum
}

// epaPenetration expands the GJK terminal simplex into a polytope and walks
// it towards the Minkowski boundary, ported from vu/physics/epa.go's epa.
// It returns the contact normal (pointing from p1 towards p2) and the
// penetration depth along it.
func epaPenetration(p1, p2 supportPair, s simplex) (normal lin.V3, depth float64, ok bool) {
	const epsilon = 1e-4
	const maxIterations = 100

	polytope, faces := polytopeFromSimplex(s)

	normals := make([]lin.V3, len(faces))
	distances := make([]float64, len(faces))
	minDistance := math.MaxFloat64
	var minNormal lin.V3
	for i, face := range faces {
		n, d := faceNormalAndDistance(face, polytope)
		normals[i], distances[i] = n, d
		if d < minDistance {
			minDistance, minNormal = d, n
		}
	}

	var edges []edgeIndex
	for iter := 0; iter < maxIterations; iter++ {
		support := minkowskiSupport(p1, p2, minNormal)
		d := minNormal.Dot(&support)
		if math.Abs(d-minDistance) < epsilon {
			return minNormal, minDistance, true
		}

		newIndex := len(polytope)
		polytope = append(polytope, support)

		for i := 0; i < len(faces); i++ {
			face, n := faces[i], normals[i]
			centroid := triangleCentroid(polytope[face.x], polytope[face.y], polytope[face.z])
			toSupport := lin.NewV3().Sub(&support, &centroid)
			if n.Dot(toSupport) <= 0 {
				continue
			}
			edges = addEdge(edges, edgeIndex{face.x, face.y})
			edges = addEdge(edges, edgeIndex{face.y, face.z})
			edges = addEdge(edges, edgeIndex{face.z, face.x})
			faces = slices.Delete(faces, i, i+1)
			normals = slices.Delete(normals, i, i+1)
			distances = slices.Delete(distances, i, i+1)
			i--
		}

		for _, e := range edges {
			face := faceIndex{e.x, e.y, newIndex}
			n, fd := faceNormalAndDistance(face, polytope)
			faces = append(faces, face)
			normals = append(normals, n)
			distances = append(distances, fd)
		}
		edges = edges[:0]

		minDistance = math.MaxFloat64
		for i, fd := range distances {
			if fd < minDistance {
				minDistance, minNormal = fd, normals[i]
			}
		}
	}
	slog.Warn("collide: EPA did not converge within the iteration budget")
	return minNormal, minDistance, false
}
