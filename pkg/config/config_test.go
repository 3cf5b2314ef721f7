package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("conformance", pflag.ContinueOnError)
	f.String("analyzer", "", "")
	f.String("testdata-dir", "", "")
	f.Int("max-jobs", 0, "")
	f.Int("repeats", 0, "")
	f.StringSlice("suites", nil, "")
	f.Bool("simulate", false, "")
	require.NoError(t, f.Parse(args))
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(flags(t), "")
	require.NoError(t, err)

	assert.Equal(t, "include_gardener", cfg.Analyzer)
	assert.Equal(t, 4, cfg.MaxJobs)
	assert.Equal(t, 10, cfg.Repeats)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.Suites)
	assert.Empty(t, cfg.Trees())
	assert.NoError(t, cfg.Validate())
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conformance.toml")
	toml := `analyzer = "/opt/gardener/bin/include_gardener"
max-jobs = 8
repeats = 3

[testdata]
ruby = "/src/ruby-tree"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	t.Setenv("CONFORMANCE_REPEATS", "5")
	t.Setenv("CONFORMANCE_TESTDATA_DIR", "/src/test_files")
	t.Setenv("CONFORMANCE_TESTDATA_PYTHON", "/src/py-tree")

	cfg, err := LoadFile(flags(t, "--max-jobs=2", "--suites=basic,c"), path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/gardener/bin/include_gardener", cfg.Analyzer, "file overrides default")
	assert.Equal(t, 5, cfg.Repeats, "env overrides file")
	assert.Equal(t, 2, cfg.MaxJobs, "flag overrides file")
	assert.Equal(t, []string{"basic", "c"}, cfg.Suites)

	assert.Equal(t, map[scenario.Language]string{
		scenario.LanguageC:      filepath.Join("/src/test_files", "c"),
		scenario.LanguagePython: "/src/py-tree",
		scenario.LanguageRuby:   "/src/ruby-tree",
	}, cfg.Trees())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFile(nil, filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxJobs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero jobs", func(c *Config) { c.MaxJobs = 0 }, "max-jobs"},
		{"zero repeats", func(c *Config) { c.Repeats = 0 }, "repeats"},
		{"no analyzer", func(c *Config) { c.Analyzer = "" }, "no analyzer"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"simulated without analyzer", func(c *Config) { c.Analyzer = ""; c.Simulate = true }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Analyzer: "include_gardener", MaxJobs: 4, Repeats: 10, Port: 8080}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "max-jobs", envKey("CONFORMANCE_MAX_JOBS"))
	assert.Equal(t, "log-json", envKey("CONFORMANCE_LOG_JSON"))
	assert.Equal(t, "testdata-dir", envKey("CONFORMANCE_TESTDATA_DIR"))
	assert.Equal(t, "testdata.c", envKey("CONFORMANCE_TESTDATA_C"))
}
