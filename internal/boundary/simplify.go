package boundary

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// maxRefinements is how many times a polygon is retried at half the
// tolerance before it is kept unsimplified.
const maxRefinements = 4

// Simplify reduces every geometry in place with Douglas-Peucker at the
// given tolerance (in coordinate units, degrees for TIGER data).
// Polygons stay valid: when a ring would collapse below four points or
// cross itself, a hole would leave its shell, or two holes would cross or
// nest, the whole polygon is retried at a smaller tolerance and kept as
// is when no tolerance works. The parts of a multipolygon keep their
// relative position the same way.
func (t *Table) Simplify(tolerance float64) {
	if tolerance <= 0 {
		return
	}
	for i := range t.Features {
		t.Features[i].Geometry = simplifyGeometry(t.Features[i].Geometry, tolerance)
	}
}

// Vertices counts the points of every ring in the table.
func (t *Table) Vertices() int {
	n := 0
	for _, f := range t.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			n += polygonVertices(g)
		case orb.MultiPolygon:
			for _, p := range g {
				n += polygonVertices(p)
			}
		}
	}
	return n
}

func polygonVertices(p orb.Polygon) int {
	n := 0
	for _, r := range p {
		n += len(r)
	}
	return n
}

func simplifyGeometry(g orb.Geometry, tolerance float64) orb.Geometry {
	switch g := g.(type) {
	case orb.Polygon:
		return simplifyPolygon(g, tolerance)
	case orb.MultiPolygon:
		return simplifyMultiPolygon(g, tolerance)
	}
	return g
}

func simplifyMultiPolygon(mp orb.MultiPolygon, tolerance float64) orb.MultiPolygon {
	tol := tolerance
	for i := 0; i <= maxRefinements; i++ {
		out := make(orb.MultiPolygon, len(mp))
		for j, p := range mp {
			out[j] = simplifyPolygon(p, tol)
		}
		if partsConsistent(mp, out) {
			return out
		}
		tol /= 2
	}
	return mp
}

func simplifyPolygon(p orb.Polygon, tolerance float64) orb.Polygon {
	if len(p) == 0 {
		return p
	}
	tol := tolerance
	for i := 0; i <= maxRefinements; i++ {
		out := make(orb.Polygon, len(p))
		for j, r := range p {
			out[j] = simplify.DouglasPeucker(tol).Ring(r.Clone())
		}
		if validPolygon(out) {
			return out
		}
		tol /= 2
	}
	return p
}

// validPolygon reports whether every ring is valid, every hole lies
// inside the shell and no two holes cross or nest.
func validPolygon(p orb.Polygon) bool {
	for _, r := range p {
		if !validRing(r) {
			return false
		}
	}
	holes := p[1:]
	for i, h := range holes {
		if !ringWithin(h, p[0]) {
			return false
		}
		for _, other := range holes[:i] {
			if !ringsDisjoint(h, other) {
				return false
			}
		}
	}
	return true
}

// partsConsistent reports whether the simplified parts of a multipolygon
// neither cross each other nor changed which part lies inside which.
// Containment is tested on the first point of each part, which
// Douglas-Peucker never removes.
func partsConsistent(before, after orb.MultiPolygon) bool {
	for i := range after {
		for j := range after {
			if i == j || len(after[i]) == 0 || len(after[j]) == 0 {
				continue
			}
			if j > i && polygonsCross(after[i], after[j]) {
				return false
			}
			pt := after[i][0][0]
			if planar.PolygonContains(after[j], pt) != planar.PolygonContains(before[j], pt) {
				return false
			}
		}
	}
	return true
}

func polygonsCross(a, b orb.Polygon) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for _, ra := range a {
		for _, rb := range b {
			if ringsCross(ra, rb) {
				return true
			}
		}
	}
	return false
}

func validRing(r orb.Ring) bool {
	if len(r) < 4 || !r.Closed() {
		return false
	}
	if planar.Area(r) == 0 {
		return false
	}
	return !selfIntersects(r)
}

func ringWithin(inner, outer orb.Ring) bool {
	for _, p := range inner[:len(inner)-1] {
		if !planar.RingContains(outer, p) {
			return false
		}
	}
	return !ringsCross(inner, outer)
}

// ringsDisjoint reports whether a and b neither cross nor contain one
// another.
func ringsDisjoint(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return true
	}
	if ringsCross(a, b) {
		return false
	}
	return !planar.RingContains(a, b[0]) && !planar.RingContains(b, a[0])
}

// selfIntersects reports whether two non-adjacent edges of the closed
// ring r touch or cross.
func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // number of edges
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

func ringsCross(a, b orb.Ring) bool {
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	if max(p1[0], p2[0]) < min(p3[0], p4[0]) || max(p3[0], p4[0]) < min(p1[0], p2[0]) ||
		max(p1[1], p2[1]) < min(p3[1], p4[1]) || max(p3[1], p4[1]) < min(p1[1], p2[1]) {
		return false
	}

	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(p3, p4, p1)) ||
		(d2 == 0 && onSegment(p3, p4, p2)) ||
		(d3 == 0 && onSegment(p1, p2, p3)) ||
		(d4 == 0 && onSegment(p1, p2, p4))
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}
