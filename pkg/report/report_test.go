package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/gardener-conformance/pkg/cycles"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/runner"
)

func sample() *runner.Report {
	return &runner.Report{
		RunID:    "0b5c3a7e-1111-2222-3333-444455556666",
		Analyzer: "/usr/local/bin/include_gardener",
		Duration: 1500 * time.Millisecond,
		Cases: []runner.CaseResult{
			{
				Suite: "c", Name: "reference graph", Status: runner.Passed, Runs: 1, Nodes: 10,
				Cycles: []cycles.Cycle{{Labels: []string{"inc/lib/f_1.h", "inc/lib/f_3.h"}}},
			},
			{
				Suite: "c", Name: "exclude option", Status: runner.Failed, Runs: 2,
				Message: "exclude-one projection: children of src/f_1.c differ",
				Diff: &oracle.GraphDiff{
					RemovedEdges: []oracle.Edge{{Source: "src/f_1.c", Target: "inc/lib/f_2.h"}},
				},
			},
			{Suite: "ruby", Name: "reference graph", Status: runner.Skipped, Message: "no fixture tree configured for ruby"},
		},
		Passed:  1,
		Failed:  1,
		Skipped: 1,
	}
}

func TestPrint(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Print(&buf, sample())
	out := buf.String()

	assert.Contains(t, out, "Conformance Report")
	assert.Contains(t, out, "C\n  ✓ reference graph (1 run(s)")
	assert.Contains(t, out, "    cycle: inc/lib/f_1.h <-> inc/lib/f_3.h\n")
	assert.Contains(t, out, "  ✗ exclude option\n")
	assert.Contains(t, out, "    - edge src/f_1.c -> inc/lib/f_2.h\n")
	assert.Contains(t, out, "RUBY\n  - reference graph skipped: no fixture tree configured for ruby\n")
	assert.Contains(t, out, "Summary: 1/2 cases passed, 1 skipped in 1.5s\n")
	assert.NotContains(t, out, "conforms")
}

func TestPrint_AllPassed(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Print(&buf, &runner.Report{Cases: []runner.CaseResult{{Suite: "basic", Name: "help -h", Status: runner.Passed}}, Passed: 1})
	assert.Contains(t, buf.String(), "The analyzer conforms!")
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		explicit string
		path     string
		want     Format
		wantErr  bool
	}{
		{"", "report.json", FormatJSON, false},
		{"", "report.yml", FormatYAML, false},
		{"", "report", FormatJSON, false},
		{"yaml", "report.json", FormatYAML, false},
		{"JSON", "", FormatJSON, false},
		{"xml", "", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFor(tt.explicit, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q %q", tt.explicit, tt.path)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "report.json")
		require.NoError(t, Export(path, FormatJSON, sample()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var got runner.Report
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, sample().RunID, got.RunID)
		assert.Len(t, got.Cases, 3)
		assert.Equal(t, runner.Failed, got.Cases[1].Status)
		assert.Equal(t, "inc/lib/f_2.h", got.Cases[1].Diff.RemovedEdges[0].Target)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "report.yaml")
		require.NoError(t, Export(path, FormatYAML, sample()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "runId: 0b5c3a7e-1111-2222-3333-444455556666")

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, 1, got["failed"])
	})

	t.Run("unwritable", func(t *testing.T) {
		assert.Error(t, Export(filepath.Join(dir, "missing", "r.json"), FormatJSON, sample()))
	})
}
