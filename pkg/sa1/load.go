package sa1

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/dlwalsh/wa2019/pkg/validation"
)

// Property names used by the ABS 2016 SA1 boundary file joined with the
// electoral roll extract.
const (
	PropID       = "SA1_7DIG16"
	PropElectors = "Electors"
	PropArea     = "AREASQKM16"
	PropOrigin   = "District"
)

// LoadOptions controls reference data loading.
type LoadOptions struct {
	// Geometry keeps feature shapes on the records. Without it only the
	// attributes are retained.
	Geometry bool
}

// LoadGeoJSON reads a reference FeatureCollection from disk.
func LoadGeoJSON(path string, opts LoadOptions) (*Registry, *validation.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading SA1 file: %w", err)
	}
	return DecodeGeoJSON(data, opts)
}

// DecodeGeoJSON builds a registry from FeatureCollection bytes. Features
// without a usable id are reported and skipped.
func DecodeGeoJSON(data []byte, opts LoadOptions) (*Registry, *validation.Report, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing SA1 GeoJSON: %w", err)
	}

	b := NewBuilder()
	for i, f := range fc.Features {
		id, ok := ParseID(f.Properties[PropID])
		if !ok {
			b.Report().AddWarning(validation.Result{
				Level:       validation.LevelLoad,
				Message:     fmt.Sprintf("feature %d has no usable %s, skipped", i, PropID),
				ActualValue: f.Properties[PropID],
			})
			continue
		}
		origin, _ := f.Properties[PropOrigin].(string)
		fields := Fields{
			Electors: f.Properties[PropElectors],
			Area:     f.Properties[PropArea],
			Origin:   origin,
		}
		if opts.Geometry {
			fields.Geometry = f.Geometry
		}
		b.Add(id, fields)
	}

	reg := b.Build()
	b.Report().AddInfo(validation.Result{
		Level:   validation.LevelLoad,
		Message: fmt.Sprintf("loaded %d SA1s from %d features", reg.Len(), len(fc.Features)),
	})
	return reg, b.Report(), nil
}
