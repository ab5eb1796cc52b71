package apportion

import (
	"slices"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// Claim resolves a district's expanded ids against the registry. Every id
// found is counted as assigned and its record returned in order; every id
// not found is reported as a UnitError and left out.
func Claim(reg *sa1.Registry, district string, ids []sa1.ID) ([]sa1.UnitRecord, []error) {
	units := make([]sa1.UnitRecord, 0, len(ids))
	var errs []error
	for _, id := range ids {
		u, ok := reg.Lookup(id)
		if !ok {
			errs = append(errs, &UnitError{District: district, ID: id})
			continue
		}
		if err := reg.RecordAssignment(id); err != nil {
			errs = append(errs, err)
			continue
		}
		units = append(units, u)
	}
	return units, errs
}

// CoverageReport lists SA1s no district claimed and SA1s claimed more than
// once. Claimants names, in proposal order, every district that claimed each
// duplicate; a name repeats when one district claims the same SA1 twice.
type CoverageReport struct {
	Missing    []sa1.ID            `json:"missing"`
	Duplicates []sa1.ID            `json:"duplicates"`
	Claimants  map[sa1.ID][]string `json:"claimants,omitempty"`
}

// Complete reports whether every SA1 was claimed exactly once.
func (c CoverageReport) Complete() bool {
	return len(c.Missing) == 0 && len(c.Duplicates) == 0
}

// Coverage reads the registry counters. Call it only after every district
// has been claimed.
func Coverage(reg *sa1.Registry, results []DistrictResult) CoverageReport {
	c := CoverageReport{
		Missing:    reg.UnassignedIDs(),
		Duplicates: reg.DuplicatedIDs(),
	}
	if len(c.Duplicates) == 0 {
		return c
	}
	c.Claimants = make(map[sa1.ID][]string, len(c.Duplicates))
	for _, r := range results {
		for _, id := range r.Units {
			if _, dup := slices.BinarySearch(c.Duplicates, id); dup {
				c.Claimants[id] = append(c.Claimants[id], r.Name)
			}
		}
	}
	return c
}
