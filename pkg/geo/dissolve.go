package geo

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrEmpty is returned when there is nothing to merge.
	ErrEmpty = errors.New("no shapes to merge")
	// ErrUnsupportedGeometry is returned for anything other than polygons.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	// ErrOverlap is returned when the interiors of two shapes intersect.
	ErrOverlap = errors.New("overlapping shapes")
	// ErrOpenBoundary is returned when the merged boundary cannot be closed
	// into rings.
	ErrOpenBoundary = errors.New("boundary does not close")
)

const sqMetresPerSqKm = 1_000_000

// Dissolver merges shapes that tile the plane, as SA1s do, by cancelling
// every edge shared by two neighbours and stitching the remaining edges into
// rings. Edges are first split wherever a neighbour's vertex lies on them, so
// shared boundaries need not be vertexed the same way on both sides. Shapes
// whose interiors intersect are rejected with ErrOverlap.
type Dissolver struct{}

type edge struct {
	a, b orb.Point
}

func (e edge) reverse() edge { return edge{e.b, e.a} }

func comparePoints(p, q orb.Point) int {
	if c := cmp.Compare(p[0], q[0]); c != 0 {
		return c
	}
	return cmp.Compare(p[1], q[1])
}

func compareEdges(e, f edge) int {
	if c := comparePoints(e.a, f.a); c != 0 {
		return c
	}
	return comparePoints(e.b, f.b)
}

// Union merges the shapes into a Polygon, or a MultiPolygon when the result
// has more than one shell.
func (Dissolver) Union(geoms []orb.Geometry) (orb.Geometry, error) {
	polys, err := flatten(geoms)
	if err != nil {
		return nil, err
	}
	if len(polys) == 0 {
		return nil, ErrEmpty
	}

	var edges []ownedEdge
	for i, poly := range polys {
		for k, ring := range poly {
			r := Orient(ring, k == 0)
			for j := 0; j+1 < len(r); j++ {
				edges = append(edges, ownedEdge{edge{r[j], r[j+1]}, i})
			}
		}
	}
	edges = node(edges)
	if err := checkCrossings(edges); err != nil {
		return nil, err
	}

	counts := make(map[edge]int, len(edges))
	owner := make(map[edge]int, len(edges))
	for _, e := range edges {
		counts[e.edge]++
		owner[e.edge] = e.owner
	}
	for e, n := range counts {
		if n > 1 {
			return nil, fmt.Errorf("%w: edge %v to %v used %d times", ErrOverlap, e.a, e.b, n)
		}
	}
	if err := checkContainment(polys, edges, owner); err != nil {
		return nil, err
	}

	var boundary []edge
	for e := range counts {
		if counts[e.reverse()] == 0 {
			boundary = append(boundary, e)
		}
	}
	slices.SortFunc(boundary, compareEdges)

	rings, err := stitch(boundary)
	if err != nil {
		return nil, err
	}
	return assemble(rings)
}

// Area returns the geodesic area of g in square kilometres.
func (Dissolver) Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return orbgeo.Area(g) / sqMetresPerSqKm
}

func flatten(geoms []orb.Geometry) ([]orb.Polygon, error) {
	var polys []orb.Polygon
	for _, g := range geoms {
		switch g := g.(type) {
		case nil:
		case orb.Polygon:
			polys = append(polys, g)
		case orb.MultiPolygon:
			polys = append(polys, g...)
		case orb.Collection:
			inner, err := flatten(g)
			if err != nil {
				return nil, err
			}
			polys = append(polys, inner...)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
		}
	}
	return polys, nil
}

// stitch follows boundary edges head to tail until each walk returns to its
// starting vertex.
func stitch(boundary []edge) ([]orb.Ring, error) {
	outgoing := make(map[orb.Point][]edge)
	for _, e := range boundary {
		outgoing[e.a] = append(outgoing[e.a], e)
	}
	used := make(map[edge]bool, len(boundary))

	next := func(from orb.Point) (edge, bool) {
		for _, e := range outgoing[from] {
			if !used[e] {
				return e, true
			}
		}
		return edge{}, false
	}

	var rings []orb.Ring
	for _, first := range boundary {
		if used[first] {
			continue
		}
		ring := orb.Ring{first.a}
		cur := first
		for steps := 0; ; steps++ {
			if steps > len(boundary) {
				return nil, fmt.Errorf("%w: walk from %v did not terminate", ErrOpenBoundary, first.a)
			}
			used[cur] = true
			ring = append(ring, cur.b)
			if cur.b == first.a {
				break
			}
			e, ok := next(cur.b)
			if !ok {
				return nil, fmt.Errorf("%w: dangling edge at %v", ErrOpenBoundary, cur.b)
			}
			cur = e
		}
		rings = append(rings, Simplify(ring))
	}
	return rings, nil
}

// assemble sorts stitched rings into shells and holes and pairs each hole
// with the smallest shell containing it.
func assemble(rings []orb.Ring) (orb.Geometry, error) {
	var shells, holes []orb.Ring
	for _, r := range rings {
		switch a := SignedArea(r); {
		case a > 0:
			shells = append(shells, r)
		case a < 0:
			holes = append(holes, r)
		}
	}
	if len(shells) == 0 {
		return nil, fmt.Errorf("%w: no outer boundary", ErrOpenBoundary)
	}
	slices.SortStableFunc(shells, func(p, q orb.Ring) int {
		return cmp.Compare(SignedArea(q), SignedArea(p))
	})

	polys := make(orb.MultiPolygon, len(shells))
	for i, s := range shells {
		polys[i] = orb.Polygon{s}
	}
	for _, h := range holes {
		owner := -1
		best := math.Inf(1)
		for i, s := range shells {
			if a := SignedArea(s); a < best && planar.RingContains(s, h[0]) {
				owner, best = i, a
			}
		}
		if owner < 0 {
			return nil, fmt.Errorf("%w: hole at %v has no enclosing shell", ErrOpenBoundary, h[0])
		}
		polys[owner] = append(polys[owner], h)
	}

	if len(polys) == 1 {
		return polys[0], nil
	}
	return polys, nil
}
