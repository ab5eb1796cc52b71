package sa1

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownUnit is returned when an id is not present in the registry.
var ErrUnknownUnit = errors.New("unknown SA1")

// Registry maps SA1 ids to their reference records and counts how many
// districts have claimed each id. Records are immutable once built; the
// assignment counters are the only mutable state and are safe for
// concurrent use.
type Registry struct {
	units map[ID]UnitRecord
	ids   []ID

	mu     sync.Mutex
	counts map[ID]int
}

func newRegistry(units map[ID]UnitRecord) *Registry {
	ids := make([]ID, 0, len(units))
	for id := range units {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return &Registry{
		units:  units,
		ids:    ids,
		counts: make(map[ID]int, len(units)),
	}
}

// NewRegistry builds a registry directly from records. Later records with a
// repeated id replace earlier ones; use Builder when input needs merging
// or coercion.
func NewRegistry(records ...UnitRecord) *Registry {
	units := make(map[ID]UnitRecord, len(records))
	for _, rec := range records {
		units[rec.ID] = rec
	}
	return newRegistry(units)
}

// Clone returns a registry sharing the same records with all assignment
// counters reset to zero.
func (r *Registry) Clone() *Registry {
	return &Registry{
		units:  r.units,
		ids:    r.ids,
		counts: make(map[ID]int, len(r.units)),
	}
}

// Len returns the number of SA1s in the registry.
func (r *Registry) Len() int {
	return len(r.ids)
}

// IDs returns every id in ascending order.
func (r *Registry) IDs() []ID {
	return slices.Clone(r.ids)
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id ID) (UnitRecord, bool) {
	u, ok := r.units[id]
	return u, ok
}

// RecordAssignment increments the claim counter for id. Ids that are not in
// the registry are rejected with ErrUnknownUnit and leave the counters
// untouched.
func (r *Registry) RecordAssignment(id ID) error {
	if _, ok := r.units[id]; !ok {
		return fmt.Errorf("record assignment of %s: %w", id, ErrUnknownUnit)
	}
	r.mu.Lock()
	r.counts[id]++
	r.mu.Unlock()
	return nil
}

// AssignmentCount returns how many times id has been claimed.
func (r *Registry) AssignmentCount(id ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[id]
}

// UnassignedIDs returns, in ascending order, every id never claimed.
func (r *Registry) UnassignedIDs() []ID {
	return r.filter(func(n int) bool { return n == 0 })
}

// DuplicatedIDs returns, in ascending order, every id claimed more than once.
func (r *Registry) DuplicatedIDs() []ID {
	return r.filter(func(n int) bool { return n > 1 })
}

func (r *Registry) filter(keep func(count int) bool) []ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ID{}
	for _, id := range r.ids {
		if keep(r.counts[id]) {
			out = append(out, id)
		}
	}
	return out
}
