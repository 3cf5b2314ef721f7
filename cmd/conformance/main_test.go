package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/gardener-conformance/pkg/config"
	"github.com/ritzau/gardener-conformance/pkg/runner"
	"github.com/ritzau/gardener-conformance/pkg/watcher"
)

func TestRun_Simulated(t *testing.T) {
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "report.json")

	code := run(context.Background(), []string{"--simulate", "--repeats=2", "--max-jobs=3", "--report", path})
	require.Equal(t, exitOK, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rep runner.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Zero(t, rep.Failed)
	assert.Zero(t, rep.Skipped)
	assert.NotEmpty(t, rep.RunID)
	assert.Contains(t, rep.Analyzer, "simulated")
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--frobnicate"}},
		{"unknown suite", []string{"--simulate", "--suites=lua"}},
		{"zero jobs", []string{"--simulate", "--max-jobs=0"}},
		{"bad verbosity", []string{"--simulate", "--verbosity=loud"}},
		{"bad report format", []string{"--simulate", "--report=r.out", "--report-format=xml"}},
		{"missing analyzer", []string{"--analyzer", filepath.Join(t.TempDir(), "include_gardener")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, exitConfig, run(context.Background(), tt.args))
		})
	}
}

func TestRestrict(t *testing.T) {
	h := &harness{cfg: &config.Config{}}

	suites, ok := h.restrict(&watcher.ChangeAnalysis{Suites: []string{runner.SuiteC, runner.SuiteDeterminism}})
	assert.True(t, ok)
	assert.Equal(t, []string{runner.SuiteC, runner.SuiteDeterminism}, suites)

	h.cfg.Suites = []string{runner.SuiteBasic, runner.SuiteRuby}
	_, ok = h.restrict(&watcher.ChangeAnalysis{Suites: []string{runner.SuiteC, runner.SuiteDeterminism}})
	assert.False(t, ok)

	suites, ok = h.restrict(&watcher.ChangeAnalysis{})
	assert.True(t, ok)
	assert.Equal(t, []string{runner.SuiteBasic, runner.SuiteRuby}, suites)
}
