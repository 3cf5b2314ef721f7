package simulator

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

const (
	cDir  = "/fixtures/c"
	pyDir = "/fixtures/py"
	rbDir = "/fixtures/rb"
)

func newAnalyzer(t *testing.T) (*Analyzer, *catalog.Catalog) {
	t.Helper()
	cat := catalog.Default()
	a, err := FromCatalog(cat, map[scenario.Language]string{
		scenario.LanguageC:      cDir,
		scenario.LanguagePython: pyDir + "/",
		scenario.LanguageRuby:   rbDir,
	})
	require.NoError(t, err)
	return a, cat
}

func run(t *testing.T, a *Analyzer, args ...string) gateway.Output {
	t.Helper()
	out, err := a.Run(context.Background(), args)
	require.NoError(t, err)
	return out
}

func decode(t *testing.T, f scenario.Format, out gateway.Output) *graph.Graph {
	t.Helper()
	require.Empty(t, string(out.Stderr))
	g, err := gateway.Decode(f, out.Stdout)
	require.NoError(t, err)
	return g
}

func TestDiagnostics(t *testing.T) {
	a, _ := newAnalyzer(t)

	tests := []struct {
		name       string
		args       []string
		wantStdout string
		wantStderr string
	}{
		{"unknown long option", []string{"--xyz"}, "", "unrecognised option '--xyz'\n"},
		{"unknown short option", []string{cDir, "-q"}, "", "unrecognised option '-q'\n"},
		{"unsupported language", []string{"-l", "x-lang"}, "", "Error: unsupported language 'x-lang'\n"},
		{"zero jobs", []string{cDir, "-f", "xml", "-j", "0"}, "", "Error: invalid number of jobs: 0\n"},
		{"negative level", []string{cDir, "-L", "-2"}, "", "Error: invalid level: -2\n"},
		{"unknown format", []string{cDir, "-f", "json"}, "", "Error: unsupported format 'json'\n"},
		{"no path", []string{"-j", "2"}, "", "Error: no input path given\n"},
		{"unknown path", []string{"/nowhere"}, "", "Error: cannot open '/nowhere'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, a, tt.args...)
			assert.Equal(t, tt.wantStdout, string(out.Stdout))
			assert.Equal(t, tt.wantStderr, string(out.Stderr))
		})
	}
}

func TestDiagnostics_InvalidExclude(t *testing.T) {
	a, _ := newAnalyzer(t)
	out := run(t, a, cDir, "-e", "(")
	assert.Empty(t, out.Stdout)
	assert.Contains(t, string(out.Stderr), "Error")
}

func TestHelpAndVersion(t *testing.T) {
	a, _ := newAnalyzer(t)

	for _, flag := range []string{"-h", "--help"} {
		out := run(t, a, flag)
		assert.Contains(t, string(out.Stdout), "Options:", flag)
		assert.Contains(t, string(out.Stdout), "--jobs", flag)
		assert.Empty(t, out.Stderr)
	}
	for _, flag := range []string{"-v", "--version"} {
		out := run(t, a, flag)
		assert.Contains(t, string(out.Stdout), "Version", flag)
	}
}

func TestReferenceGraphs(t *testing.T) {
	a, cat := newAnalyzer(t)

	tests := []struct {
		lang scenario.Language
		args []string
	}{
		{scenario.LanguageC, []string{cDir, "-f", "xml", "-I", cDir + "/inc/"}},
		{scenario.LanguagePython, []string{pyDir, "-f", "xml", "-l", "py", "-j", "1"}},
		{scenario.LanguageRuby, []string{rbDir, "-f", "xml", "-l", "ruby", "-I", rbDir + "/lib"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			got := decode(t, scenario.FormatXML, run(t, a, tt.args...))

			ref, _ := cat.Lookup(tt.lang, catalog.ScenarioReference)
			want, err := ref.Graph()
			require.NoError(t, err)

			r := oracle.Compare(got, want)
			assert.True(t, r.Equivalent, r.Detail)
		})
	}
}

func TestLanguageMismatch_ScansNothing(t *testing.T) {
	a, _ := newAnalyzer(t)
	g := decode(t, scenario.FormatDOT, run(t, a, cDir, "-l", "ruby"))
	assert.Equal(t, 0, g.Len())
}

func TestMatchesProjection(t *testing.T) {
	a, cat := newAnalyzer(t)
	tree, _ := cat.Tree(scenario.LanguageC)

	tests := []struct {
		name     string
		excludes []string
		level    int
	}{
		{"level 0", nil, 0},
		{"level 1", nil, 1},
		{"level 2", nil, 2},
		{"exclude one", tree.Excludes[catalog.ScenarioExcludeOne], graph.Unbounded},
		{"exclude two", tree.Excludes[catalog.ScenarioExcludeTwo], graph.Unbounded},
		{"exclude two at level 1", tree.Excludes[catalog.ScenarioExcludeTwo], 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scenario.Scenario{Root: cDir, ExcludePatterns: tt.excludes, Jobs: scenario.Int(3)}
			if tt.level != graph.Unbounded {
				sc.Level = scenario.Int(tt.level)
			}
			got := decode(t, scenario.FormatDOT, run(t, a, sc.Args()...))

			want, err := cat.Project(scenario.LanguageC, tt.excludes, tt.level)
			require.NoError(t, err)

			r := oracle.Compare(got, want)
			assert.True(t, r.Equivalent, r.Detail)
		})
	}
}

func TestJobsDoNotChangeContent(t *testing.T) {
	a, _ := newAnalyzer(t)
	baseline := decode(t, scenario.FormatXML, run(t, a, pyDir, "-l", "py", "-f", "xml", "-j", "1"))

	for jobs := 1; jobs <= 8; jobs++ {
		for i := 0; i < 5; i++ {
			got := decode(t, scenario.FormatXML, run(t, a, pyDir, "-l", "py", "-f", "xml", "-j", strconv.Itoa(jobs)))
			r := oracle.Compare(got, baseline)
			require.True(t, r.Equivalent, "jobs=%d run=%d: %s", jobs, i, r.Detail)
		}
	}
}

func TestSingleJobIsByteStable(t *testing.T) {
	a, _ := newAnalyzer(t)
	first := run(t, a, cDir)
	dot := run(t, a, cDir, "-f", "dot")
	assert.Equal(t, string(first.Stdout), string(dot.Stdout))
}

func TestOutputFile(t *testing.T) {
	a, _ := newAnalyzer(t)
	path := filepath.Join(t.TempDir(), "graph.graphml")

	out := run(t, a, cDir, "-f", "xml", "-o", path)
	assert.Empty(t, out.Stdout)
	assert.Empty(t, out.Stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fromFile, err := gateway.Decode(scenario.FormatXML, data)
	require.NoError(t, err)

	fromStdout := decode(t, scenario.FormatXML, run(t, a, cDir, "-f", "xml"))
	assert.True(t, oracle.Compare(fromFile, fromStdout).Equivalent)
}

func TestCanceledContext(t *testing.T) {
	a, _ := newAnalyzer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, []string{cDir, "-j", "2"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromCatalog_UnknownLanguage(t *testing.T) {
	_, err := FromCatalog(catalog.Default(), map[scenario.Language]string{"cobol": "/x"})
	assert.Error(t, err)
}
