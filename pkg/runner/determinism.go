package runner

import (
	"context"
	"fmt"

	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

func (r *Runner) determinismCases() []testCase {
	var cases []testCase
	for _, lang := range []scenario.Language{scenario.LanguageC, scenario.LanguagePython, scenario.LanguageRuby} {
		cases = append(cases, testCase{
			name: fmt.Sprintf("%s jobs 1-%d x%d", languageName(lang), r.opts.MaxJobs, r.opts.Repeats),
			run: func(ctx context.Context, res *CaseResult) error {
				dir, err := r.tree(lang)
				if err != nil {
					return err
				}
				_, err = r.matrix(ctx, r.referenceScenario(lang, dir), res)
				return err
			},
		})
	}
	return cases
}

// matrix runs base with every worker count from 1 to MaxJobs, Repeats times
// each. The first run that yields a graph becomes the baseline and every
// later run must be structurally equivalent to it.
func (r *Runner) matrix(ctx context.Context, base scenario.Scenario, res *CaseResult) (*graph.Graph, error) {
	var baseline *graph.Graph
	var baselineName string

	for jobs := 1; jobs <= r.opts.MaxJobs; jobs++ {
		for i := 1; i <= r.opts.Repeats; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			sc := base.With(scenario.WithJobs(jobs), scenario.WithName(fmt.Sprintf("-j %d run %d", jobs, i)))
			inv, err := r.invoke(ctx, sc, res)
			if err != nil {
				return nil, err
			}

			if inv.Graph == nil {
				if baseline == nil {
					logging.WarnContext(ctx, "no graph yet, baseline still open", "run", sc.Name, "stderr", string(inv.Stderr))
					continue
				}
				return nil, fmt.Errorf("%s: analyzer produced no graph%s", sc.Name, diagnostics(inv.Stderr))
			}

			if baseline == nil {
				baseline, baselineName = inv.Graph, sc.Name
				res.Nodes = baseline.Len()
				logging.DebugContext(ctx, "determinism baseline", "run", sc.Name, "nodes", baseline.Len())
				continue
			}

			what := fmt.Sprintf("%s vs baseline %s", sc.Name, baselineName)
			if err := equivalent(res, oracle.Structural, what, inv.Graph, baseline); err != nil {
				return nil, err
			}
		}
	}

	if baseline == nil {
		return nil, fmt.Errorf("none of %d runs produced a graph", res.Runs)
	}
	return baseline, nil
}
