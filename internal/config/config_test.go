package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlwalsh/wa2019/pkg/apportion"
)

// isolate runs the test from an empty directory with no WA2019_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"WA2019_CONFIG_PATH", "WA2019_UNITS", "WA2019_PROPOSAL", "WA2019_OUTPUT",
		"WA2019_POLICY", "WA2019_THRESHOLD", "WA2019_RATE", "WA2019_WORKERS",
		"WA2019_GEOMETRY", "WA2019_DB_PATH", "WA2019_LOG_LEVEL",
		"WA2019_LOG_DEVELOPMENT", "WA2019_SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Apportion.Policy, "policy has no default")
	assert.Error(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "wa2019.yaml")
	writeFile(t, path, `
data:
  units: sa1.geojson
apportion:
  policy: electors
  workers: 4
  geometry: true
server:
  port: 8080
`)
	t.Setenv("WA2019_SERVER_PORT", "9090")
	t.Setenv("WA2019_RATE", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sa1.geojson", cfg.Data.Units)
	assert.Equal(t, "data/proposal.json", cfg.Data.Proposal, "unset keys keep defaults")
	assert.Equal(t, apportion.PolicyElectors, cfg.Apportion.Policy)
	assert.Equal(t, 4, cfg.Apportion.Workers)
	assert.True(t, cfg.Apportion.Geometry)
	assert.Equal(t, 9090, cfg.Server.Port)
	require.NoError(t, cfg.Validate())

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, apportion.ElectorsAllowance{Threshold: apportion.DefaultElectorsThreshold, Rate: 0.5}, policy)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "other.yaml")
	writeFile(t, path, "apportion:\n  policy: area\n")
	t.Setenv("WA2019_CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, apportion.PolicyArea, cfg.Apportion.Policy)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "WA2019_POLICY=area\nWA2019_LOG_LEVEL=debug\n")
	t.Cleanup(func() {
		os.Unsetenv("WA2019_POLICY")
		os.Unsetenv("WA2019_LOG_LEVEL")
	})
	// godotenv does not override variables already present, so clear the
	// placeholders isolate set.
	os.Unsetenv("WA2019_POLICY")
	os.Unsetenv("WA2019_LOG_LEVEL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, apportion.PolicyArea, cfg.Apportion.Policy)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "apportion: [")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")

	t.Setenv("WA2019_WORKERS", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid WA2019_WORKERS")
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Apportion.Policy = apportion.PolicyArea
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"unknown policy":   func(c *Config) { c.Apportion.Policy = "population" },
		"missing units":    func(c *Config) { c.Data.Units = "" },
		"negative workers": func(c *Config) { c.Apportion.Workers = -1 },
		"bad port":         func(c *Config) { c.Server.Port = 0 },
		"negative rate":    func(c *Config) { c.Apportion.Rate = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
