package sa1

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/dlwalsh/wa2019/pkg/validation"
)

// Fields are the loosely typed attributes of one SA1 as they appear in the
// source data. Electors and Area may be numbers, numeric strings, or nil.
type Fields struct {
	Electors any
	Area     any
	Origin   string
	Geometry orb.Geometry
}

// Builder is the validated construction step for a Registry. Numeric fields
// are coerced once here so aggregation never re-parses them. Malformed
// values become 0 and are reported as load warnings.
type Builder struct {
	units  map[ID]*UnitRecord
	report *validation.Report
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		units:  make(map[ID]*UnitRecord),
		report: validation.NewReport(),
	}
}

// Add records one source row. A repeated id is merged into the existing
// record: electors and area are summed and the shapes are combined.
func (b *Builder) Add(id ID, f Fields) {
	electors := b.coerceElectors(id, f.Electors)
	area := b.coerceArea(id, f.Area)

	existing, ok := b.units[id]
	if !ok {
		b.units[id] = &UnitRecord{
			ID:       id,
			Electors: electors,
			Area:     area,
			Origin:   f.Origin,
			Geometry: f.Geometry,
		}
		return
	}

	existing.Electors += electors
	existing.Area += area
	if existing.Origin == "" {
		existing.Origin = f.Origin
	} else if f.Origin != "" && f.Origin != existing.Origin {
		b.report.AddWarning(validation.Result{
			Level:       validation.LevelLoad,
			Message:     fmt.Sprintf("SA1 %s has conflicting origin districts", id),
			UnitIDs:     []int64{int64(id)},
			ActualValue: f.Origin,
			Expected:    existing.Origin,
		})
	}
	existing.Geometry = combine(existing.Geometry, f.Geometry)
}

// Report returns the load findings collected so far.
func (b *Builder) Report() *validation.Report {
	return b.report
}

// Build freezes the collected records into a Registry.
func (b *Builder) Build() *Registry {
	units := make(map[ID]UnitRecord, len(b.units))
	for id, u := range b.units {
		units[id] = *u
	}
	return newRegistry(units)
}

func (b *Builder) coerceElectors(id ID, v any) int {
	n, ok := ParseElectors(v)
	if !ok {
		b.malformed(id, "Electors", v)
	}
	return n
}

func (b *Builder) coerceArea(id ID, v any) float64 {
	a, ok := ParseArea(v)
	if !ok {
		b.malformed(id, "area", v)
	}
	return a
}

func (b *Builder) malformed(id ID, field string, v any) {
	b.report.AddWarning(validation.Result{
		Level:       validation.LevelLoad,
		Message:     fmt.Sprintf("SA1 %s has malformed %s, using 0", id, field),
		UnitIDs:     []int64{int64(id)},
		ActualValue: v,
		Expected:    "non-negative number",
	})
}

// ParseElectors coerces a source elector count. Absent values yield (0, true);
// unparsable or negative values yield (0, false). Fractions truncate. A string
// must parse as a number in full, so "12abc" and "1,234" are unparsable
// rather than read as 12 and 1.
func ParseElectors(v any) (int, bool) {
	f, ok := parseNumber(v)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// ParseArea coerces a source area in square kilometres with the same rules
// as ParseElectors.
func ParseArea(v any) (float64, bool) {
	return parseNumber(v)
}

// ParseID coerces a source SA1 identifier.
func ParseID(v any) (ID, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x < 0 {
			return 0, false
		}
		return ID(x), true
	case int:
		return ID(x), x >= 0
	case int64:
		return ID(x), x >= 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		return ID(n), true
	}
	return 0, false
}

func parseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func combine(a, b orb.Geometry) orb.Geometry {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	var mp orb.MultiPolygon
	for _, g := range []orb.Geometry{a, b} {
		switch g := g.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	return mp
}
