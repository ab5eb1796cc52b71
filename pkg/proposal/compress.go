package proposal

import (
	"slices"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// Compress is the inverse of Expand for a set of ids: it sorts and
// de-duplicates them, then merges consecutive ids into pairs. Runs longer
// than MaxSpan are split so every pair is valid input to Expand.
func Compress(ids []sa1.ID) []RangePair {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var out []RangePair
	for i := 0; i < len(sorted); {
		start := sorted[i]
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 && sorted[j+1]-start < MaxSpan {
			j++
		}
		if j == i {
			out = append(out, Single(start))
		} else {
			out = append(out, Span(start, sorted[j]))
		}
		i = j + 1
	}
	return out
}
