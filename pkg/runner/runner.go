// Package runner drives the conformance cases against an analyzer.
//
// Every case invokes the analyzer through the gateway, decodes what it
// produced and checks it against the catalog with the oracle. Failures of
// the analyzer, including missing or undecodable output, become failed
// cases; the run itself never aborts.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// Suite names
const (
	SuiteBasic       = "basic"
	SuiteC           = "c"
	SuitePython      = "python"
	SuiteRuby        = "ruby"
	SuiteDeterminism = "determinism"
)

// Suites lists every suite in execution order
var Suites = []string{SuiteBasic, SuiteC, SuitePython, SuiteRuby, SuiteDeterminism}

// Options configures a Runner
type Options struct {
	// Analyzer is only used for reporting
	Analyzer string

	// Trees maps a language to the directory of its fixture tree.
	// Suites whose tree is missing are skipped.
	Trees map[scenario.Language]string

	// MaxJobs is the highest worker count of the determinism matrix
	MaxJobs int
	// Repeats is how often each worker count is run
	Repeats int

	// Suites restricts the run to the named suites; empty runs all
	Suites []string

	// Observer, when set, is called after every case
	Observer func(CaseResult)
}

// Runner executes suites
type Runner struct {
	gw   *gateway.Gateway
	cat  *catalog.Catalog
	opts Options
}

func New(gw *gateway.Gateway, cat *catalog.Catalog, opts Options) *Runner {
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = 4
	}
	if opts.Repeats <= 0 {
		opts.Repeats = 10
	}
	return &Runner{gw: gw, cat: cat, opts: opts}
}

// errSkip marks a case that could not run
type errSkip struct {
	reason string
}

func (e *errSkip) Error() string {
	return e.reason
}

func skip(format string, args ...any) error {
	return &errSkip{reason: fmt.Sprintf(format, args...)}
}

type testCase struct {
	name string
	run  func(ctx context.Context, res *CaseResult) error
}

type suite struct {
	name  string
	cases []testCase
}

func (r *Runner) suites() []suite {
	return []suite{
		{name: SuiteBasic, cases: r.basicCases()},
		{name: SuiteC, cases: r.cCases()},
		{name: SuitePython, cases: r.pythonCases()},
		{name: SuiteRuby, cases: r.rubyCases()},
		{name: SuiteDeterminism, cases: r.determinismCases()},
	}
}

func (r *Runner) selected(name string) bool {
	return len(r.opts.Suites) == 0 || slices.Contains(r.opts.Suites, name)
}

// Run executes the selected suites and returns the report
func (r *Runner) Run(ctx context.Context) *Report {
	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}

	report := &Report{RunID: runID, Analyzer: r.opts.Analyzer, Started: time.Now()}
	logging.InfoContext(ctx, "conformance run started", "analyzer", r.opts.Analyzer)

	for _, s := range r.suites() {
		if !r.selected(s.name) {
			continue
		}
		for _, c := range s.cases {
			res := r.runCase(ctx, s.name, c)
			report.add(res)
			if r.opts.Observer != nil {
				r.opts.Observer(res)
			}
		}
	}

	report.Duration = time.Since(report.Started)
	logging.InfoContext(ctx, "conformance run finished",
		"passed", report.Passed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"durationMs", report.Duration.Milliseconds(),
	)
	return report
}

func (r *Runner) runCase(ctx context.Context, suiteName string, c testCase) CaseResult {
	res := CaseResult{Suite: suiteName, Name: c.name}
	if err := ctx.Err(); err != nil {
		res.Status = Skipped
		res.Message = err.Error()
		return res
	}

	start := time.Now()
	err := c.run(ctx, &res)
	res.Duration = time.Since(start)

	var sk *errSkip
	switch {
	case err == nil:
		res.Status = Passed
		logging.DebugContext(ctx, "case passed", "case", res.ID(), "runs", res.Runs)
	case errors.As(err, &sk):
		res.Status = Skipped
		res.Message = sk.reason
		logging.DebugContext(ctx, "case skipped", "case", res.ID(), "reason", sk.reason)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Interrupted, not a verdict on the analyzer
		res.Status = Skipped
		res.Message = err.Error()
		logging.DebugContext(ctx, "case interrupted", "case", res.ID(), "error", err)
	default:
		res.Status = Failed
		res.Message = err.Error()
		logging.WarnContext(ctx, "case failed", "case", res.ID(), "error", err)
	}
	return res
}

// tree returns the fixture directory of lang or a skip error
func (r *Runner) tree(lang scenario.Language) (string, error) {
	dir := r.opts.Trees[lang]
	if dir == "" {
		return "", skip("no fixture tree configured for %s", languageName(lang))
	}
	return dir, nil
}

func languageName(lang scenario.Language) string {
	switch lang {
	case scenario.LanguagePython:
		return "python"
	case scenario.LanguageRuby:
		return "ruby"
	default:
		return "c"
	}
}
