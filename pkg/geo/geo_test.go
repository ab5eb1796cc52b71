package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}
}

func rect(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

// --- Ring tests ---

func TestSignedAreaSquare(t *testing.T) {
	r := square(0, 0, 10)[0]
	if !approxEqual(SignedArea(r), 100, tolerance) {
		t.Errorf("expected area 100, got %f", SignedArea(r))
	}
	if !approxEqual(SignedArea(Reverse(r)), -100, tolerance) {
		t.Errorf("expected area -100 for clockwise ring, got %f", SignedArea(Reverse(r)))
	}
}

func TestSignedAreaTriangle(t *testing.T) {
	tri := orb.Ring{{0, 0}, {10, 0}, {0, 10}}
	if !approxEqual(SignedArea(tri), 50, tolerance) {
		t.Errorf("expected area 50, got %f", SignedArea(tri))
	}
}

func TestOrient(t *testing.T) {
	cw := Reverse(square(0, 0, 1)[0])
	r := Orient(cw, true)
	if !IsCounterClockwise(r) {
		t.Error("expected counterclockwise ring")
	}
	if r[0] != r[len(r)-1] {
		t.Error("expected closed ring")
	}

	open := orb.Ring{{0, 0}, {0, 0}, {1, 0}, {1, 1}}
	r = Orient(open, false)
	if len(r) != 4 {
		t.Errorf("expected 3 distinct vertices plus closure, got %d points", len(r))
	}
	if IsCounterClockwise(r) {
		t.Error("expected clockwise ring")
	}
}

func TestSimplifyDropsCollinear(t *testing.T) {
	r := orb.Ring{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {0, 1}, {0, 0}}
	s := Simplify(r)
	if len(s) != 5 {
		t.Fatalf("expected 4 corners plus closure, got %d points: %v", len(s), s)
	}
	if !approxEqual(SignedArea(s), 2, tolerance) {
		t.Errorf("simplify changed area: %f", SignedArea(s))
	}
}

// --- Dissolve tests ---

func TestUnionAdjacentSquares(t *testing.T) {
	g, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 1), square(1, 0, 1)})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", g)
	}
	if len(poly) != 1 || len(poly[0]) != 5 {
		t.Errorf("expected one 4-corner ring, got %v", poly)
	}
	if !approxEqual(planar.Area(poly), 2, tolerance) {
		t.Errorf("expected area 2, got %f", planar.Area(poly))
	}
}

func TestUnionClockwiseInput(t *testing.T) {
	a := orb.Polygon{Reverse(square(0, 0, 1)[0])}
	g, err := Dissolver{}.Union([]orb.Geometry{a, square(0, 1, 1)})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if !approxEqual(planar.Area(g), 2, tolerance) {
		t.Errorf("expected area 2, got %f", planar.Area(g))
	}
}

func TestUnionDisjoint(t *testing.T) {
	g, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 1), orb.MultiPolygon{square(5, 5, 2)}})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	mp, ok := g.(orb.MultiPolygon)
	if !ok {
		t.Fatalf("expected MultiPolygon, got %T", g)
	}
	if len(mp) != 2 {
		t.Fatalf("expected 2 shells, got %d", len(mp))
	}
	if !approxEqual(planar.Area(mp[0]), 4, tolerance) {
		t.Errorf("expected largest shell first, got area %f", planar.Area(mp[0]))
	}
}

func TestUnionRingWithHole(t *testing.T) {
	var parts []orb.Geometry
	for x := 0.0; x < 3; x++ {
		for y := 0.0; y < 3; y++ {
			if x == 1 && y == 1 {
				continue
			}
			parts = append(parts, square(x, y, 1))
		}
	}
	g, err := Dissolver{}.Union(parts)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", g)
	}
	if len(poly) != 2 {
		t.Fatalf("expected shell and hole, got %d rings", len(poly))
	}
	if !approxEqual(planar.Area(poly), 8, tolerance) {
		t.Errorf("expected area 8, got %f", planar.Area(poly))
	}
}

func TestUnionOverlap(t *testing.T) {
	_, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 1), square(0, 0, 1)})
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}
}

func TestUnionPartialOverlap(t *testing.T) {
	_, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 2), square(1, 1, 2)})
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}
}

func TestUnionContained(t *testing.T) {
	_, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 4), square(1, 1, 1)})
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap, got %v", err)
	}

	// Sharing part of the outer edge does not hide the overlap.
	_, err = Dissolver{}.Union([]orb.Geometry{square(0, 0, 2), square(0, 0, 1)})
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap for corner square, got %v", err)
	}
}

func TestUnionTJunction(t *testing.T) {
	// The tall rectangle's right edge has no vertex where the two squares meet.
	g, err := Dissolver{}.Union([]orb.Geometry{rect(0, 0, 1, 2), square(1, 0, 1), square(1, 1, 1)})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", g)
	}
	if len(poly) != 1 || len(poly[0]) != 5 {
		t.Errorf("expected one 4-corner ring, got %v", poly)
	}
	if !approxEqual(planar.Area(poly), 4, tolerance) {
		t.Errorf("expected area 4, got %f", planar.Area(poly))
	}
}

func TestUnionPartialSharedEdge(t *testing.T) {
	g, err := Dissolver{}.Union([]orb.Geometry{square(0, 0, 2), rect(1, -1, 3, 0)})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", g)
	}
	if len(poly) != 1 {
		t.Errorf("expected a single ring, got %d", len(poly))
	}
	if !approxEqual(planar.Area(poly), 6, tolerance) {
		t.Errorf("expected area 6, got %f", planar.Area(poly))
	}
}

func TestUnionIslandFillsHole(t *testing.T) {
	donut := orb.Polygon{square(0, 0, 3)[0], square(1, 1, 1)[0]}
	g, err := Dissolver{}.Union([]orb.Geometry{donut, square(1, 1, 1)})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		t.Fatalf("expected Polygon, got %T", g)
	}
	if len(poly) != 1 {
		t.Errorf("expected the hole to be filled, got %d rings", len(poly))
	}
	if !approxEqual(planar.Area(poly), 9, tolerance) {
		t.Errorf("expected area 9, got %f", planar.Area(poly))
	}
}

func TestUnionRejects(t *testing.T) {
	if _, err := (Dissolver{}).Union(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	_, err := Dissolver{}.Union([]orb.Geometry{orb.Point{1, 2}})
	if !errors.Is(err, ErrUnsupportedGeometry) {
		t.Errorf("expected ErrUnsupportedGeometry, got %v", err)
	}
}

func TestAreaSquareKilometres(t *testing.T) {
	// One degree square at the equator is roughly 111.3 km on a side.
	a := Dissolver{}.Area(square(0, 0, 1))
	if !approxEqual(a, 12364, 150) {
		t.Errorf("expected about 12,364 sq km, got %f", a)
	}
	if (Dissolver{}).Area(nil) != 0 {
		t.Error("expected zero area for nil geometry")
	}
}
