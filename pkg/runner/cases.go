package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/cycles"
	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

func (r *Runner) basicCases() []testCase {
	cases := []testCase{
		r.streamCase("unrecognised option", fixed(scenario.Scenario{Extra: []string{"--xyz"}}),
			func(stdout, stderr string) error {
				if want := "unrecognised option '--xyz'\n"; stderr != want {
					return fmt.Errorf("expected stderr %q, got %q", want, stderr)
				}
				if stdout != "" {
					return fmt.Errorf("expected empty stdout, got %q", stdout)
				}
				return nil
			}),
	}

	for _, flag := range []string{"-h", "--help"} {
		cases = append(cases, r.streamCase("help "+flag,
			fixed(scenario.Scenario{Extra: []string{flag}}), stdoutContains("Options:")))
	}
	for _, flag := range []string{"-v", "--version"} {
		cases = append(cases, r.streamCase("version "+flag,
			fixed(scenario.Scenario{Extra: []string{flag}}), stdoutContains("Version")))
	}

	return append(cases, r.streamCase("unsupported language",
		fixed(scenario.Scenario{Language: "x-lang"}), stderrContains("Error", "x-lang")))
}

func (r *Runner) cCases() []testCase {
	return []testCase{
		r.dotOutput(scenario.LanguageC),
		{name: "default format is dot", run: r.cDefaultFormat},
		r.referenceGraph(scenario.LanguageC),
		{name: "level option", run: r.cLevels},
		r.streamCase("zero jobs", func() (scenario.Scenario, error) {
			dir, err := r.tree(scenario.LanguageC)
			return scenario.Scenario{Root: dir, Format: scenario.FormatXML, Jobs: scenario.Int(0)}, err
		}, all(stderrContains("Error"), noPayload)),
		{name: "exclude option", run: r.cExcludes},
		{name: "output file", run: r.cOutputFile},
	}
}

func (r *Runner) pythonCases() []testCase {
	return []testCase{
		r.dotOutput(scenario.LanguagePython),
		r.referenceGraph(scenario.LanguagePython),
	}
}

func (r *Runner) rubyCases() []testCase {
	return []testCase{
		r.referenceGraph(scenario.LanguageRuby),
	}
}

// dotOutput checks that a plain single threaded run yields a DOT graph
func (r *Runner) dotOutput(lang scenario.Language) testCase {
	return testCase{name: "dot output", run: func(ctx context.Context, res *CaseResult) error {
		dir, err := r.tree(lang)
		if err != nil {
			return err
		}
		sc := scenario.Scenario{Name: "dot output", Root: dir, Jobs: scenario.Int(1)}
		if lang != scenario.LanguageC {
			sc.Language = lang
		}

		g, err := r.graphOf(ctx, sc, res)
		if err != nil {
			return err
		}
		res.Nodes = g.Len()
		if g.Len() == 0 {
			return fmt.Errorf("expected at least one node")
		}
		return nil
	}}
}

func (r *Runner) referenceGraph(lang scenario.Language) testCase {
	return testCase{name: "reference graph", run: func(ctx context.Context, res *CaseResult) error {
		dir, err := r.tree(lang)
		if err != nil {
			return err
		}
		ref, err := r.reference(lang, catalog.ScenarioReference)
		if err != nil {
			return err
		}
		want, err := ref.Graph()
		if err != nil {
			return err
		}

		got, err := r.graphOf(ctx, r.referenceScenario(lang, dir), res)
		if err != nil {
			return err
		}
		res.Nodes = got.Len()
		res.Cycles = cycles.FindCycles(got)
		return equivalent(res, ref.Mode, "reference graph", got, want)
	}}
}

func (r *Runner) cDefaultFormat(ctx context.Context, res *CaseResult) error {
	dir, err := r.tree(scenario.LanguageC)
	if err != nil {
		return err
	}

	def, err := r.run(ctx, scenario.Scenario{Name: "default format", Root: dir}, res)
	if err != nil {
		return err
	}
	dot, err := r.run(ctx, scenario.Scenario{Name: "-f dot", Root: dir, Format: scenario.FormatDOT}, res)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(def.Stdout)) == 0 {
		return fmt.Errorf("default format produced no output%s", diagnostics(def.Stderr))
	}
	if !bytes.Equal(def.Stdout, dot.Stdout) {
		return fmt.Errorf("output without -f differs from -f dot (%d vs %d bytes)", len(def.Stdout), len(dot.Stdout))
	}
	return nil
}

// cLevels checks the golden node counts of -L 0, 1 and 2 and that omitting
// -L is the same as -L 2
func (r *Runner) cLevels(ctx context.Context, res *CaseResult) error {
	dir, err := r.tree(scenario.LanguageC)
	if err != nil {
		return err
	}
	base := scenario.Scenario{Root: dir, Format: scenario.FormatXML}

	unbounded, err := r.graphOf(ctx, base.With(scenario.WithName("no level")), res)
	if err != nil {
		return err
	}
	res.Nodes = unbounded.Len()

	var two *graph.Graph
	for level := 0; level <= 2; level++ {
		golden, err := r.reference(scenario.LanguageC, catalog.Level(level))
		if err != nil {
			return err
		}

		name := fmt.Sprintf("-L %d", level)
		inv, err := r.invoke(ctx, base.With(scenario.WithName(name), scenario.WithLevel(level)), res)
		if err != nil {
			return err
		}
		// An empty graph may come back as no payload at all
		if inv.Graph == nil && level > 0 {
			return fmt.Errorf("%s: analyzer produced no graph%s", name, diagnostics(inv.Stderr))
		}
		if err := nodeCount(name, inv.Graph, golden.Nodes); err != nil {
			return err
		}
		two = inv.Graph
	}

	return equivalent(res, oracle.Structural, "no level vs -L 2", unbounded, two)
}

// cExcludes checks the golden counts of the exclude scenarios and that the
// excluded graphs are exactly the reference projected onto the surviving roots
func (r *Runner) cExcludes(ctx context.Context, res *CaseResult) error {
	dir, err := r.tree(scenario.LanguageC)
	if err != nil {
		return err
	}
	tree, ok := r.cat.Tree(scenario.LanguageC)
	if !ok {
		return skip("catalog has no C tree")
	}
	ref, err := r.reference(scenario.LanguageC, catalog.ScenarioReference)
	if err != nil {
		return err
	}

	base := r.referenceScenario(scenario.LanguageC, dir)
	full, err := r.graphOf(ctx, base.With(scenario.WithName("no exclude")), res)
	if err != nil {
		return err
	}
	res.Nodes = full.Len()
	if err := nodeCount("no exclude", full, ref.Nodes); err != nil {
		return err
	}

	for _, name := range []string{catalog.ScenarioExcludeOne, catalog.ScenarioExcludeTwo} {
		patterns := tree.Excludes[name]
		golden, err := r.reference(scenario.LanguageC, name)
		if err != nil {
			return err
		}

		g, err := r.graphOf(ctx, base.With(scenario.WithName(name), scenario.WithExclude(patterns...)), res)
		if err != nil {
			return err
		}
		if err := nodeCount(name, g, golden.Nodes); err != nil {
			return err
		}

		want, err := r.cat.Project(scenario.LanguageC, patterns, graph.Unbounded)
		if err != nil {
			return err
		}
		if err := equivalent(res, oracle.Structural, name+" projection", g, want); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) cOutputFile(ctx context.Context, res *CaseResult) error {
	dir, err := r.tree(scenario.LanguageC)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "conformance-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	base := scenario.Scenario{Root: dir, Format: scenario.FormatXML}
	fromFile, err := r.graphOf(ctx, base.With(
		scenario.WithName("-o file"),
		scenario.WithOutput(filepath.Join(tmp, "graph.graphml")),
	), res)
	if err != nil {
		return err
	}
	res.Nodes = fromFile.Len()
	if fromFile.Len() == 0 {
		return fmt.Errorf("output file holds an empty graph")
	}

	fromStdout, err := r.graphOf(ctx, base.With(scenario.WithName("stdout")), res)
	if err != nil {
		return err
	}
	return equivalent(res, oracle.Structural, "-o file vs stdout", fromFile, fromStdout)
}
