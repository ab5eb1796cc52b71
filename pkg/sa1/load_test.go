package sa1

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"SA1_7DIG16": "5100101", "Electors": "312", "AREASQKM16": "0.41", "District": "Perth"},
      "geometry": {"type": "Polygon", "coordinates": [[[115.8,-31.9],[115.81,-31.9],[115.81,-31.91],[115.8,-31.9]]]}
    },
    {
      "type": "Feature",
      "properties": {"SA1_7DIG16": 5100102, "Electors": null, "AREASQKM16": 12.5, "District": "MCDONALD"},
      "geometry": null
    },
    {
      "type": "Feature",
      "properties": {"Electors": "1"},
      "geometry": null
    }
  ]
}`

func TestDecodeGeoJSON(t *testing.T) {
	reg, report, err := DecodeGeoJSON([]byte(sampleGeoJSON), LoadOptions{Geometry: true})
	require.NoError(t, err)

	require.Equal(t, 2, reg.Len())
	u, ok := reg.Lookup(5100101)
	require.True(t, ok)
	assert.Equal(t, 312, u.Electors)
	assert.InDelta(t, 0.41, u.Area, 1e-12)
	assert.Equal(t, "Perth", u.Origin)
	assert.True(t, u.HasGeometry())

	u, ok = reg.Lookup(5100102)
	require.True(t, ok)
	assert.Equal(t, 0, u.Electors)
	assert.Equal(t, "MCDONALD", u.Origin)
	assert.False(t, u.HasGeometry())

	require.Len(t, report.Warnings, 1, "feature without id should be reported")
	require.Len(t, report.Info, 1)
}

func TestDecodeGeoJSONWithoutGeometry(t *testing.T) {
	reg, _, err := DecodeGeoJSON([]byte(sampleGeoJSON), LoadOptions{})
	require.NoError(t, err)
	u, _ := reg.Lookup(5100101)
	assert.False(t, u.HasGeometry())
}

func TestLoadGeoJSONErrors(t *testing.T) {
	_, _, err := LoadGeoJSON(filepath.Join(t.TempDir(), "missing.geojson"), LoadOptions{})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, _, err = LoadGeoJSON(path, LoadOptions{})
	require.Error(t, err)
}
