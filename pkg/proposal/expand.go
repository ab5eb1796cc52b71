package proposal

import (
	"errors"
	"fmt"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// MaxSpan bounds end - start for a single pair. A mistyped end id would
// otherwise swallow an unrelated block of SA1s.
const MaxSpan = 100

// ErrInvalidRange is matched by every RangeError.
var ErrInvalidRange = errors.New("invalid range")

// RangeError reports a pair that cannot be expanded.
type RangeError struct {
	District string
	Pair     RangePair
	Reason   string
}

func (e *RangeError) Error() string {
	if e.District == "" {
		return fmt.Sprintf("invalid range %s: %s", e.Pair, e.Reason)
	}
	return fmt.Sprintf("%s: invalid range %s: %s", e.District, e.Pair, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// ExpandPair returns the ids covered by one pair in ascending order.
func ExpandPair(p RangePair) ([]sa1.ID, error) {
	if !p.HasEnd {
		return []sa1.ID{p.Start}, nil
	}
	span := p.End - p.Start
	if span >= MaxSpan {
		return nil, &RangeError{
			Pair:   p,
			Reason: fmt.Sprintf("span %d exceeds limit of %d", span, MaxSpan-1),
		}
	}
	if span < 0 {
		return nil, &RangeError{Pair: p, Reason: "end precedes start"}
	}
	ids := make([]sa1.ID, 0, span+1)
	for id := p.Start; id <= p.End; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

// Expand concatenates the expansion of every pair in order. Repeated ids are
// preserved. A pair that fails is skipped and its RangeError is returned in
// the error list; the remaining pairs still expand.
func Expand(pairs []RangePair) ([]sa1.ID, []error) {
	var (
		ids  []sa1.ID
		errs []error
	)
	for _, p := range pairs {
		part, err := ExpandPair(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, part...)
	}
	return ids, errs
}

// ExpandPair expands one of the district's pairs, tagging a failure with the
// district name.
func (d District) ExpandPair(p RangePair) ([]sa1.ID, error) {
	ids, err := ExpandPair(p)
	var re *RangeError
	if errors.As(err, &re) {
		re.District = d.Name
	}
	return ids, err
}

// Expand expands the district's ranges, tagging errors with its name.
func (d District) Expand() ([]sa1.ID, []error) {
	var (
		ids  []sa1.ID
		errs []error
	)
	for _, p := range d.Ranges {
		part, err := d.ExpandPair(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, part...)
	}
	return ids, errs
}
