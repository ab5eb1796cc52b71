// Package export writes analysed districts as GeoJSON.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb/geojson"

	"github.com/dlwalsh/wa2019/pkg/apportion"
)

type feature struct {
	Type       string             `json:"type"`
	Geometry   *geojson.Geometry  `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// Encode builds a FeatureCollection with one feature per district.
// Districts whose shapes were not merged get a null geometry.
func Encode(results []apportion.DistrictResult) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(results))}
	for _, r := range results {
		f := feature{Type: "Feature", Properties: Properties(r)}
		if r.Geometry != nil {
			f.Geometry = geojson.NewGeometry(r.Geometry)
		}
		fc.Features = append(fc.Features, f)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return data, nil
}

// Properties are the display attributes attached to a district feature.
func Properties(r apportion.DistrictResult) geojson.Properties {
	props := geojson.Properties{
		"Name":   r.Name,
		"Area":   fmt.Sprintf("%s sq km", humanize.Comma(int64(math.Floor(r.Area)))),
		"Actual": humanize.Comma(int64(r.Current)),
		"Total":  r.Total,
	}
	if r.Phantom != 0 {
		props["Phantom"] = r.Phantom
	}
	return props
}

// WriteFile writes the districts to path as GeoJSON.
func WriteFile(path string, results []apportion.DistrictResult) error {
	data, err := Encode(results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing GeoJSON: %w", err)
	}
	return nil
}
