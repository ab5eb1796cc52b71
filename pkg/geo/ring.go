// Package geo merges SA1 shapes into district boundaries and measures them.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// SignedArea returns the planar signed area of a ring using the shoelace
// formula. Positive for counterclockwise winding, negative for clockwise.
// The ring may be open or closed.
func SignedArea(r orb.Ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i][0] * r[j][1]
		area -= r[j][0] * r[i][1]
	}
	return area / 2
}

// IsCounterClockwise returns true if the ring winds counterclockwise.
func IsCounterClockwise(r orb.Ring) bool {
	return SignedArea(r) > 0
}

// Reverse returns a copy of the ring with reversed vertex order.
func Reverse(r orb.Ring) orb.Ring {
	n := len(r)
	rev := make(orb.Ring, n)
	for i, v := range r {
		rev[n-1-i] = v
	}
	return rev
}

// Orient returns a closed copy of r wound counterclockwise when ccw is true
// and clockwise otherwise. Repeated consecutive vertices are dropped.
func Orient(r orb.Ring, ccw bool) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if IsCounterClockwise(out) != ccw {
		out = Reverse(out)
	}
	if len(out) > 0 {
		out = append(out, out[0])
	}
	return out
}

// Simplify drops vertices of a closed ring that lie on the straight line
// between their neighbours.
func Simplify(r orb.Ring) orb.Ring {
	open := r
	if len(open) > 1 && open[0] == open[len(open)-1] {
		open = open[:len(open)-1]
	}
	n := len(open)
	if n < 4 {
		return r
	}
	out := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		prev := open[(i+n-1)%n]
		next := open[(i+1)%n]
		if math.Abs(cross(prev, open[i], next)) < 1e-15 {
			continue
		}
		out = append(out, open[i])
	}
	if len(out) < 3 {
		return r
	}
	return append(out, out[0])
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}
