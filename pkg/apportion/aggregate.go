package apportion

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// AreaSource records where a district's area figure came from.
type AreaSource string

const (
	AreaFromUnits    AreaSource = "units"
	AreaFromGeometry AreaSource = "geometry"
)

// OriginSubtotal is the share of a district drawn from one existing
// district.
type OriginSubtotal struct {
	Origin  string  `json:"origin"`
	Current int     `json:"current"`
	Area    float64 `json:"area"`
	Phantom float64 `json:"phantom"`
	Total   float64 `json:"total"`
}

// DisplayName is the origin label as it should be printed.
func (o OriginSubtotal) DisplayName() string {
	return DisplayOrigin(o.Origin)
}

// DistrictResult holds the computed metrics for one proposed district.
// Total is always Current + Phantom.
type DistrictResult struct {
	Name       string           `json:"name"`
	Current    int              `json:"current"`
	Area       float64          `json:"area"`
	UnitArea   float64          `json:"unit_area"`
	AreaSource AreaSource       `json:"area_source"`
	Phantom    float64          `json:"phantom"`
	Total      float64          `json:"total"`
	UnitCount  int              `json:"unit_count"`
	Origins    []OriginSubtotal `json:"origins"`

	// Issues are the problems found while processing the district, in the
	// order they were found.
	Issues   []error      `json:"-"`
	Units    []sa1.ID     `json:"-"`
	Geometry orb.Geometry `json:"-"`
}

// Totals is a roll-up of Current, Area, Phantom and Total.
type Totals struct {
	Current int     `json:"current"`
	Area    float64 `json:"area"`
	Phantom float64 `json:"phantom"`
	Total   float64 `json:"total"`
}

// Aggregate computes district metrics from its resolved units using the
// summed unit areas.
func Aggregate(name string, units []sa1.UnitRecord, policy PhantomPolicy) DistrictResult {
	current, area := sum(units)
	r := DistrictResult{
		Name:       name,
		Current:    current,
		Area:       area,
		UnitArea:   area,
		AreaSource: AreaFromUnits,
		UnitCount:  len(units),
		Origins:    Origins(units, policy),
		Units:      make([]sa1.ID, len(units)),
	}
	for i, u := range units {
		r.Units[i] = u.ID
	}
	r.applyPolicy(policy)
	return r
}

// UseGeometry replaces the summed area with the area of the merged shape
// and recomputes the phantom allowance.
func (r *DistrictResult) UseGeometry(g orb.Geometry, area float64, policy PhantomPolicy) {
	r.Geometry = g
	r.Area = area
	r.AreaSource = AreaFromGeometry
	r.applyPolicy(policy)
}

func (r *DistrictResult) applyPolicy(policy PhantomPolicy) {
	r.Phantom = policy.Phantom(r.Current, r.Area)
	r.Total = float64(r.Current) + r.Phantom
}

// Origins groups units by origin district. Groups with no electors or no
// area are left out. Groups are sorted by raw origin label.
func Origins(units []sa1.UnitRecord, policy PhantomPolicy) []OriginSubtotal {
	groups := make(map[string][]sa1.UnitRecord)
	for _, u := range units {
		groups[u.Origin] = append(groups[u.Origin], u)
	}

	out := []OriginSubtotal{}
	for origin, members := range groups {
		current, area := sum(members)
		if current == 0 || area == 0 {
			continue
		}
		phantom := policy.Phantom(current, area)
		out = append(out, OriginSubtotal{
			Origin:  origin,
			Current: current,
			Area:    area,
			Phantom: phantom,
			Total:   float64(current) + phantom,
		})
	}
	slices.SortFunc(out, func(a, b OriginSubtotal) int {
		return strings.Compare(a.Origin, b.Origin)
	})
	return out
}

// GrandTotal sums every district's figures.
func GrandTotal(results []DistrictResult) Totals {
	var t Totals
	for _, r := range results {
		t.Current += r.Current
		t.Area += r.Area
		t.Phantom += r.Phantom
		t.Total += r.Total
	}
	return t
}

// DisplayOrigin applies the "Mc" naming convention to an origin label, so
// MCDONALD prints as McDonald. Other labels are returned unchanged.
func DisplayOrigin(label string) string {
	if len(label) < 2 || !strings.EqualFold(label[:2], "mc") {
		return label
	}
	rest := label[2:]
	first, size := utf8.DecodeRuneInString(rest)
	if size == 0 {
		return "Mc"
	}
	return "Mc" + string(unicode.ToUpper(first)) + strings.ToLower(rest[size:])
}

func sum(units []sa1.UnitRecord) (int, float64) {
	current, area := 0, 0.0
	for _, u := range units {
		current += u.Electors
		area += u.Area
	}
	return current, area
}
