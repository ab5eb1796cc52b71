package apportion

import (
	"slices"

	"github.com/dlwalsh/wa2019/pkg/proposal"
	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// Selection summarises an ad-hoc set of SA1s, such as one picked on the map,
// without touching the registry's assignment counters.
type Selection struct {
	Ranges  []proposal.RangePair `json:"ranges"`
	Current int                  `json:"current"`
	Area    float64              `json:"area"`
	Phantom float64              `json:"phantom"`
	Total   float64              `json:"total"`
	Origins []OriginSubtotal     `json:"origins"`
	Unknown []sa1.ID             `json:"unknown"`
}

// Summarize totals the selected ids. Repeated ids count once; ids absent
// from the registry are listed in Unknown.
func Summarize(reg *sa1.Registry, ids []sa1.ID, policy PhantomPolicy) Selection {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	sel := Selection{Unknown: []sa1.ID{}}
	units := make([]sa1.UnitRecord, 0, len(unique))
	for _, id := range unique {
		u, ok := reg.Lookup(id)
		if !ok {
			sel.Unknown = append(sel.Unknown, id)
			continue
		}
		units = append(units, u)
	}

	r := Aggregate("selection", units, policy)
	sel.Ranges = proposal.Compress(unique)
	sel.Current = r.Current
	sel.Area = r.Area
	sel.Phantom = r.Phantom
	sel.Total = r.Total
	sel.Origins = r.Origins
	return sel
}
