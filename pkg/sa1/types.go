// Package sa1 holds the reference data for SA1 statistical areas and the
// registry that tracks how many proposed districts claim each one.
package sa1

import (
	"strconv"

	"github.com/paulmach/orb"
)

// ID is a 7-digit SA1 identifier. It is ordinal (ranges of consecutive
// ids are meaningful) but otherwise opaque.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnitRecord is the validated reference data for one SA1.
type UnitRecord struct {
	ID       ID           `json:"id"`
	Electors int          `json:"electors"`
	Area     float64      `json:"area_sq_km"`
	Origin   string       `json:"origin"`
	Geometry orb.Geometry `json:"-"`
}

// HasGeometry reports whether the record carries a shape.
func (u UnitRecord) HasGeometry() bool {
	return u.Geometry != nil
}

// Int64s converts ids to plain integers for reporting.
func Int64s(ids []ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
