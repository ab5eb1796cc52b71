package apportion

import (
	"github.com/paulmach/orb"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// GeometryProvider merges SA1 shapes and measures the result. Area is in
// square kilometres.
type GeometryProvider interface {
	Union(geoms []orb.Geometry) (orb.Geometry, error)
	Area(g orb.Geometry) float64
}

// MergeGeometry unions the shapes of a district's units in order. It
// returns a nil geometry when none of the units carry a shape.
func MergeGeometry(provider GeometryProvider, district string, units []sa1.UnitRecord) (orb.Geometry, float64, error) {
	var geoms []orb.Geometry
	for _, u := range units {
		if u.HasGeometry() {
			geoms = append(geoms, u.Geometry)
		}
	}
	if len(geoms) == 0 {
		return nil, 0, nil
	}
	merged, err := provider.Union(geoms)
	if err != nil {
		return nil, 0, &GeometryUnionError{District: district, Err: err}
	}
	return merged, provider.Area(merged), nil
}
