// Copyright © 2024 Galvanized Logic Inc.

package shape

import (
	"math"
	"testing"

	"github.com/gazed/vu/math/lin"
)

func unitTetra() Tetrahedron {
	return Tetrahedron{
		A: lin.V3{X: 0, Y: 0, Z: 0},
		B: lin.V3{X: 1, Y: 0, Z: 0},
		C: lin.V3{X: 0, Y: 1, Z: 0},
		D: lin.V3{X: 0, Y: 0, Z: 1},
	}
}

// bruteForceClosestDistSqr samples a dense point cloud on the tetrahedron's
// boundary and interior to give an independent reference distance, used to
// cross-check ClosestPoint's squared distance without trusting the same
// derivation twice.
func bruteForceClosestDistSqr(t Tetrahedron, p lin.V3) float64 {
	const n = 30
	best := math.Inf(1)
	verts := [4]lin.V3{t.A, t.B, t.C, t.D}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n-i; j++ {
			for k := 0; k <= n-i-j; k++ {
				l := n - i - j - k
				u, v, w, x := float64(i)/n, float64(j)/n, float64(k)/n, float64(l)/n
				pt := lin.V3{
					X: u*verts[0].X + v*verts[1].X + w*verts[2].X + x*verts[3].X,
					Y: u*verts[0].Y + v*verts[1].Y + w*verts[2].Y + x*verts[3].Y,
					Z: u*verts[0].Z + v*verts[1].Z + w*verts[2].Z + x*verts[3].Z,
				}
				d := distSqr3(p, pt)
				if d < best {
					best = d
				}
			}
		}
	}
	return best
}

func checkRegion(t *testing.T, p lin.V3, want VoronoiRegion) {
	t.Helper()
	tet := unitTetra()
	_, region, distSqr := tet.ClosestPoint(p)
	if region != want {
		t.Errorf("point %+v: region = %v, want %v", p, region, want)
	}
	ref := bruteForceClosestDistSqr(tet, p)
	if math.Abs(distSqr-ref) > 1e-3 {
		t.Errorf("point %+v: distSqr = %f, brute-force reference = %f", p, distSqr, ref)
	}
}

func TestTetrahedronInterior(t *testing.T) {
	checkRegion(t, lin.V3{X: 0.1, Y: 0.1, Z: 0.1}, RegionInterior)
}

func TestTetrahedronVertexRegions(t *testing.T) {
	checkRegion(t, lin.V3{X: -1, Y: -1, Z: -1}, RegionVertexA)
	checkRegion(t, lin.V3{X: 2, Y: -1, Z: -1}, RegionVertexB)
	checkRegion(t, lin.V3{X: -1, Y: 2, Z: -1}, RegionVertexC)
	checkRegion(t, lin.V3{X: -1, Y: -1, Z: 2}, RegionVertexD)
}

func TestTetrahedronEdgeRegions(t *testing.T) {
	checkRegion(t, lin.V3{X: 0.5, Y: -1, Z: -1}, RegionEdgeAB)
	checkRegion(t, lin.V3{X: -1, Y: 0.5, Z: -1}, RegionEdgeAC)
	checkRegion(t, lin.V3{X: -1, Y: -1, Z: 0.5}, RegionEdgeAD)
	checkRegion(t, lin.V3{X: 0.5, Y: 0.5, Z: -1}, RegionEdgeBC)
	checkRegion(t, lin.V3{X: 0.5, Y: -1, Z: 0.5}, RegionEdgeBD)
	checkRegion(t, lin.V3{X: -1, Y: 0.5, Z: 0.5}, RegionEdgeCD)
}

func TestTetrahedronFaceRegions(t *testing.T) {
	checkRegion(t, lin.V3{X: 0.2, Y: 0.2, Z: -1}, RegionFaceABC)
	checkRegion(t, lin.V3{X: 0.2, Y: -1, Z: 0.2}, RegionFaceABD)
	checkRegion(t, lin.V3{X: -1, Y: 0.2, Z: 0.2}, RegionFaceACD)
	checkRegion(t, lin.V3{X: 1, Y: 1, Z: 1}, RegionFaceBCD)
}

func TestTetrahedronClosestPointOnVertexIsExact(t *testing.T) {
	tet := unitTetra()
	cp, region, d := tet.ClosestPoint(lin.V3{X: -5, Y: -5, Z: -5})
	if region != RegionVertexA {
		t.Fatalf("region = %v, want RegionVertexA", region)
	}
	if cp != tet.A {
		t.Errorf("closest point = %+v, want tetrahedron vertex A %+v", cp, tet.A)
	}
	want := distSqr3(lin.V3{X: -5, Y: -5, Z: -5}, tet.A)
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("distSqr = %f, want %f", d, want)
	}
}
