package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

func (r *Runner) run(ctx context.Context, sc scenario.Scenario, res *CaseResult) (*gateway.Invocation, error) {
	res.Runs++
	return r.gw.Run(ctx, sc)
}

func (r *Runner) invoke(ctx context.Context, sc scenario.Scenario, res *CaseResult) (*gateway.Invocation, error) {
	res.Runs++
	return r.gw.Invoke(ctx, sc)
}

// graphOf runs sc and requires the analyzer to produce a graph
func (r *Runner) graphOf(ctx context.Context, sc scenario.Scenario, res *CaseResult) (*graph.Graph, error) {
	inv, err := r.invoke(ctx, sc, res)
	if err != nil {
		return nil, err
	}
	if inv.Graph == nil {
		return nil, fmt.Errorf("%s: analyzer produced no graph%s", sc.Name, diagnostics(inv.Stderr))
	}
	return inv.Graph, nil
}

func diagnostics(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return ""
	}
	return ": " + s
}

func (r *Runner) reference(lang scenario.Language, name string) (catalog.Reference, error) {
	ref, ok := r.cat.Lookup(lang, name)
	if !ok {
		return catalog.Reference{}, skip("catalog has no reference %s/%s", lang, name)
	}
	return ref, nil
}

// referenceScenario is the invocation the reference graph of lang was taken with
func (r *Runner) referenceScenario(lang scenario.Language, dir string) scenario.Scenario {
	sc := scenario.Scenario{Name: "reference", Root: dir, Format: scenario.FormatXML}
	if lang != scenario.LanguageC {
		sc.Language = lang
	}
	if tree, ok := r.cat.Tree(lang); ok {
		base := strings.TrimRight(dir, "/")
		for _, inc := range tree.Include {
			sc.IncludePaths = append(sc.IncludePaths, base+"/"+inc)
		}
	}
	// The package front end was only ever specified single threaded
	if lang == scenario.LanguagePython {
		sc.Jobs = scenario.Int(1)
	}
	return sc
}

// equivalent compares with the oracle and records the details on mismatch
func equivalent(res *CaseResult, mode oracle.Mode, what string, actual, expected *graph.Graph) error {
	result := oracle.Check(mode, actual, expected)
	if result.Equivalent {
		return nil
	}
	res.Result = &result
	res.Diff = oracle.ComputeDiff(actual, expected)
	return fmt.Errorf("%s: %s", what, result.Detail)
}

func nodeCount(what string, g *graph.Graph, want int) error {
	got := 0
	if g != nil {
		got = g.Len()
	}
	if got != want {
		return fmt.Errorf("%s: expected %d nodes, got %d", what, want, got)
	}
	return nil
}

// streamCheck asserts on the raw output of an analyzer run
type streamCheck func(stdout, stderr string) error

func stdoutContains(want string) streamCheck {
	return func(stdout, _ string) error {
		if !strings.Contains(stdout, want) {
			return fmt.Errorf("expected %q on stdout, got %q", want, stdout)
		}
		return nil
	}
}

func stderrContains(wants ...string) streamCheck {
	return func(_, stderr string) error {
		if strings.TrimSpace(stderr) == "" {
			return fmt.Errorf("expected a diagnostic on stderr, got nothing")
		}
		for _, want := range wants {
			if !strings.Contains(stderr, want) {
				return fmt.Errorf("expected %q on stderr, got %q", want, stderr)
			}
		}
		return nil
	}
}

func noPayload(stdout, _ string) error {
	if strings.TrimSpace(stdout) != "" {
		return fmt.Errorf("expected no graph payload, got %d bytes on stdout", len(stdout))
	}
	return nil
}

func all(checks ...streamCheck) streamCheck {
	return func(stdout, stderr string) error {
		for _, check := range checks {
			if err := check(stdout, stderr); err != nil {
				return err
			}
		}
		return nil
	}
}

// streamCase runs the scenario built by build and checks its raw streams.
// build may return a skip error when a fixture tree is missing.
func (r *Runner) streamCase(name string, build func() (scenario.Scenario, error), check streamCheck) testCase {
	return testCase{name: name, run: func(ctx context.Context, res *CaseResult) error {
		sc, err := build()
		if err != nil {
			return err
		}
		sc.Name = name

		inv, err := r.run(ctx, sc, res)
		if err != nil {
			return err
		}
		return check(string(inv.Stdout), string(inv.Stderr))
	}}
}

func fixed(sc scenario.Scenario) func() (scenario.Scenario, error) {
	return func() (scenario.Scenario, error) {
		return sc, nil
	}
}
