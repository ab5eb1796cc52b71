package apportion

import (
	"errors"
	"fmt"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

var (
	// ErrInvalidUnitID is matched by every UnitError.
	ErrInvalidUnitID = errors.New("invalid SA1")
	// ErrGeometryUnion is matched by every GeometryUnionError.
	ErrGeometryUnion = errors.New("geometry union failed")
)

// UnitError reports a district claiming an id absent from the registry.
type UnitError struct {
	District string
	ID       sa1.ID
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: invalid SA1 %s", e.District, e.ID)
}

func (e *UnitError) Unwrap() error { return ErrInvalidUnitID }

// GeometryUnionError reports that a district's shapes could not be merged.
type GeometryUnionError struct {
	District string
	Err      error
}

func (e *GeometryUnionError) Error() string {
	return fmt.Sprintf("union failed for %s: %v", e.District, e.Err)
}

func (e *GeometryUnionError) Unwrap() []error { return []error{ErrGeometryUnion, e.Err} }
