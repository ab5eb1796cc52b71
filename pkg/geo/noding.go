package geo

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// snapTolerance is the distance, in coordinate units, within which a vertex
// is treated as lying on a neighbouring edge. In degrees it is about 0.1 mm.
const snapTolerance = 1e-9

// ownedEdge is a directed boundary edge and the index of the polygon it
// came from.
type ownedEdge struct {
	edge
	owner int
}

func (e edge) bound() orb.Bound {
	return orb.Bound{Min: e.a, Max: e.a}.Extend(e.b)
}

func (e edge) midpoint() orb.Point {
	return orb.Point{(e.a[0] + e.b[0]) / 2, (e.a[1] + e.b[1]) / 2}
}

// grid is a uniform bucket index over bounds.
type grid struct {
	min   orb.Point
	size  float64
	cells map[[2]int][]int
}

func newGrid(extent orb.Bound, n int) *grid {
	span := math.Max(extent.Max[0]-extent.Min[0], extent.Max[1]-extent.Min[1])
	size := span / math.Max(math.Ceil(math.Sqrt(float64(n))), 1)
	if size <= 0 {
		size = 1
	}
	return &grid{min: extent.Min, size: size, cells: make(map[[2]int][]int)}
}

func (g *grid) cellRange(b orb.Bound) (x0, y0, x1, y1 int) {
	b = b.Pad(snapTolerance)
	x0 = int(math.Floor((b.Min[0] - g.min[0]) / g.size))
	y0 = int(math.Floor((b.Min[1] - g.min[1]) / g.size))
	x1 = int(math.Floor((b.Max[0] - g.min[0]) / g.size))
	y1 = int(math.Floor((b.Max[1] - g.min[1]) / g.size))
	return x0, y0, x1, y1
}

func (g *grid) insert(id int, b orb.Bound) {
	x0, y0, x1, y1 := g.cellRange(b)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			g.cells[[2]int{x, y}] = append(g.cells[[2]int{x, y}], id)
		}
	}
}

// candidates returns, sorted and unique, every id whose cells touch b.
func (g *grid) candidates(b orb.Bound) []int {
	x0, y0, x1, y1 := g.cellRange(b)
	var ids []int
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			ids = append(ids, g.cells[[2]int{x, y}]...)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func edgeExtent(edges []ownedEdge) orb.Bound {
	b := edges[0].bound()
	for _, e := range edges[1:] {
		b = b.Union(e.bound())
	}
	return b
}

// interiorParam reports whether p lies on segment ab strictly between its
// ends, and where along it.
func interiorParam(p, a, b orb.Point) (float64, bool) {
	if p == a || p == b {
		return 0, false
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0, false
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	if t <= 0 || t >= 1 {
		return 0, false
	}
	dist := math.Abs(dx*(p[1]-a[1])-dy*(p[0]-a[0])) / math.Sqrt(l2)
	return t, dist <= snapTolerance
}

// node splits every edge at the vertices of other edges that lie on it, so
// neighbours whose shared boundary is vertexed differently end up with
// identical edges that cancel.
func node(edges []ownedEdge) []ownedEdge {
	if len(edges) == 0 {
		return nil
	}
	g := newGrid(edgeExtent(edges), len(edges))
	for i, e := range edges {
		g.insert(i, e.bound())
	}

	type cut struct {
		t float64
		p orb.Point
	}
	out := make([]ownedEdge, 0, len(edges))
	for i, e := range edges {
		var cuts []cut
		for _, j := range g.candidates(e.bound()) {
			if j == i {
				continue
			}
			for _, p := range [2]orb.Point{edges[j].a, edges[j].b} {
				if t, ok := interiorParam(p, e.a, e.b); ok {
					cuts = append(cuts, cut{t, p})
				}
			}
		}
		if len(cuts) == 0 {
			out = append(out, e)
			continue
		}
		slices.SortFunc(cuts, func(x, y cut) int { return cmp.Compare(x.t, y.t) })

		prev := e.a
		for _, c := range cuts {
			if c.p == prev {
				continue
			}
			out = append(out, ownedEdge{edge{prev, c.p}, e.owner})
			prev = c.p
		}
		out = append(out, ownedEdge{edge{prev, e.b}, e.owner})
	}
	return out
}

// side is the sign of p relative to the directed line ab, zero within
// snapTolerance of it.
func side(a, b, p orb.Point) int {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0
	}
	d := (dx*(p[1]-a[1]) - dy*(p[0]-a[0])) / l
	switch {
	case d > snapTolerance:
		return 1
	case d < -snapTolerance:
		return -1
	}
	return 0
}

// crosses reports whether two noded edges cut through each other's
// interiors.
func crosses(e, f edge) bool {
	if e.a == f.a || e.a == f.b || e.b == f.a || e.b == f.b {
		return false
	}
	return side(e.a, e.b, f.a)*side(e.a, e.b, f.b) < 0 &&
		side(f.a, f.b, e.a)*side(f.a, f.b, e.b) < 0
}

// checkCrossings fails if any two noded edges cross. Shapes that tile the
// plane only ever meet along shared edges or at vertices.
func checkCrossings(edges []ownedEdge) error {
	if len(edges) == 0 {
		return nil
	}
	g := newGrid(edgeExtent(edges), len(edges))
	for i, e := range edges {
		g.insert(i, e.bound())
	}
	for i, e := range edges {
		for _, j := range g.candidates(e.bound()) {
			if j <= i {
				continue
			}
			if f := edges[j]; crosses(e.edge, f.edge) {
				return fmt.Errorf("%w: edge %v to %v of shape %d crosses edge %v to %v of shape %d",
					ErrOverlap, e.a, e.b, e.owner, f.a, f.b, f.owner)
			}
		}
	}
	return nil
}

// checkContainment fails if any edge of one shape runs through the interior
// of another. With crossings ruled out this catches a shape nested inside
// another and neighbours that overlap along part of their area.
func checkContainment(polys []orb.Polygon, edges []ownedEdge, owner map[edge]int) error {
	bounds := make([]orb.Bound, len(polys))
	extent := polys[0].Bound()
	for i, p := range polys {
		bounds[i] = p.Bound()
		extent = extent.Union(bounds[i])
	}
	g := newGrid(extent, len(polys))
	for i, b := range bounds {
		g.insert(i, b)
	}

	for _, e := range edges {
		m := e.midpoint()
		for _, j := range g.candidates(orb.Bound{Min: m, Max: m}) {
			if j == e.owner {
				continue
			}
			if o, ok := owner[e.reverse()]; ok && o == j {
				continue
			}
			if bounds[j].Contains(m) && planar.PolygonContains(polys[j], m) {
				return fmt.Errorf("%w: shape %d extends into shape %d at %v", ErrOverlap, e.owner, j, m)
			}
		}
	}
	return nil
}
