package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureUnit struct {
	id       int
	electors string
	area     float64
	origin   string
}

var fixtureUnits = []fixtureUnit{
	{5101001, "1000", 60_000, "Kimberley"},
	{5101002, "1500", 50_000, "Kimberley"},
	{5101003, "2000", 10_000, "Pilbara"},
	{5101004, "12000", 12.5, "Perth"},
	{5101005, "11000", 10.25, "Mcdonald"},
	{5101006, "500", 1, "Perth"},
}

const fixtureProposal = `{"districts": [
	{"name": "North", "SA1": [[5101001, 5101003]]},
	{"name": "South", "SA1": [[5101004, 5101005]]}
]}`

// workspace writes the reference data and proposal into a fresh working
// directory and clears WA2019_* variables.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"WA2019_CONFIG_PATH", "WA2019_UNITS", "WA2019_PROPOSAL", "WA2019_OUTPUT",
		"WA2019_POLICY", "WA2019_THRESHOLD", "WA2019_RATE", "WA2019_WORKERS",
		"WA2019_GEOMETRY", "WA2019_DB_PATH", "WA2019_LOG_DEVELOPMENT", "WA2019_SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("WA2019_LOG_LEVEL", "error")

	var features []string
	for i, u := range fixtureUnits {
		x0, x1 := float64(i)*0.01, float64(i+1)*0.01
		features = append(features, fmt.Sprintf(`{"type": "Feature",
			"properties": {"SA1_7DIG16": "%d", "Electors": "%s", "AREASQKM16": %g, "District": "%s"},
			"geometry": {"type": "Polygon", "coordinates": [[[%g, 0], [%g, 0], [%g, 0.01], [%g, 0.01], [%g, 0]]]}}`,
			u.id, u.electors, u.area, u.origin, x0, x1, x1, x0, x0))
	}
	geo := `{"type": "FeatureCollection", "features": [` + strings.Join(features, ",") + `]}`

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "sa1.geojson"), []byte(geo), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "proposal.json"), []byte(fixtureProposal), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFiguresCommand(t *testing.T) {
	workspace(t)

	out, err := execute(t, "figures", "--policy", "area")
	require.NoError(t, err, out)

	for _, line := range []string{
		formatRow("North", "Actual", "Area", "Phantom", "Total"),
		formatRow("from Kimberley", "2,500", "110,000", "1,650", "4,150"),
		formatRow("from Pilbara", "2,000", "10,000", "0", "2,000"),
		formatRow("Total", "4,500", "120,000", "1,800", "6,300"),
		formatRow("from McDonald", "11,000", "10", "0", "11,000"),
		formatRow("Total", "23,000", "23", "0", "23,000"),
		formatRow("Grand Total", "27,500", "120,023", "1,800", "29,300"),
	} {
		assert.Contains(t, out, line+"\n")
	}
	assert.Contains(t, out, "Missing SA1s\n  5101006\n")
	assert.NotContains(t, out, "Duplicate SA1s")
	assert.Contains(t, out, "Result: INVALID")
}

func TestFiguresRequiresPolicy(t *testing.T) {
	workspace(t)

	_, err := execute(t, "figures")
	assert.ErrorContains(t, err, "phantom policy not set")
}

func TestFiguresElectorsPolicy(t *testing.T) {
	workspace(t)
	t.Setenv("WA2019_POLICY", "electors")
	t.Setenv("WA2019_THRESHOLD", "100000")

	out, err := execute(t, "figures")
	require.NoError(t, err, out)
	assert.Contains(t, out, formatRow("Total", "4,500", "120,000", "2,700", "7,200")+"\n")
}

func TestCheckCommand(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "check", "--policy", "area")
	require.Error(t, err)
	assert.Contains(t, out, "Missing SA1s")
	assert.Contains(t, out, "1 SA1s are not claimed by any district")

	complete := `{"districts": [{"name": "All", "SA1": [[5101001, 5101006]]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "proposal.json"), []byte(complete), 0o644))
	out, err = execute(t, "check", "--policy", "area")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Result: VALID")
}

func TestProposalCommand(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "out.geojson")

	out, err := execute(t, "proposal", "--policy", "area", "-o", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote 2 districts (2 with merged shapes)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "South", fc.Features[1].Properties["Name"])
	assert.Equal(t, "23,000", fc.Features[1].Properties["Actual"])
	assert.NotNil(t, fc.Features[0].Geometry)
}

func TestSelectCommand(t *testing.T) {
	workspace(t)

	out, err := execute(t, "select", "--policy", "area", "5101003", "5101001-5101002", "5101005", "9999999")
	require.NoError(t, err, out)
	assert.Contains(t, out, "SA1: [[5101001, 5101003], [5101005], [9999999]]")
	assert.Contains(t, out, formatRow("Total", "15,500", "120,010", "1,800", "17,300")+"\n")
	assert.Contains(t, out, "Unknown SA1s\n  9999999\n")

	_, err = execute(t, "select", "--policy", "area", "5101001-5109999")
	assert.ErrorContains(t, err, "invalid range")

	_, err = execute(t, "select", "--policy", "area", "abc")
	assert.ErrorContains(t, err, `invalid SA1 "abc"`)
}

func TestSaveAndHistory(t *testing.T) {
	dir := workspace(t)
	t.Setenv("WA2019_DB_PATH", filepath.Join(dir, "history", "runs.db"))

	out, err := execute(t, "history")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No saved runs.")

	out, err = execute(t, "figures", "--policy", "area", "--save")
	require.NoError(t, err, out)
	m := regexp.MustCompile(`Saved run ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.NotNil(t, m, out)
	runID := m[1]

	out, err = execute(t, "history")
	require.NoError(t, err, out)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "29,300")

	out, err = execute(t, "history", runID)
	require.NoError(t, err, out)
	assert.Contains(t, out, formatRow("North", "4,500", "120,000", "1,800", "6,300"))

	_, err = execute(t, "history", "missing-run")
	assert.ErrorContains(t, err, "run not found")
}

func TestSaveWithoutStore(t *testing.T) {
	workspace(t)

	_, err := execute(t, "figures", "--policy", "area", "--save")
	assert.ErrorContains(t, err, "store.path is not set")
}

func TestConfigFile(t *testing.T) {
	dir := workspace(t)
	cfg := filepath.Join(dir, "wa2019.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("apportion:\n  policy: area\n  geometry: true\n"), 0o644))

	out, err := execute(t, "figures", "--config", cfg)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Grand Total")
}

func TestParseSelection(t *testing.T) {
	ids, err := parseSelection([]string{"7", "3-5"})
	require.NoError(t, err)
	got, _ := json.Marshal(ids)
	assert.JSONEq(t, `[7, 3, 4, 5]`, string(got))

	_, err = parseSelection([]string{"5-x"})
	assert.ErrorContains(t, err, `invalid SA1 range "5-x"`)
}
