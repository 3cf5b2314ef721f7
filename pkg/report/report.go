package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/gardener-conformance/pkg/runner"
)

// Print writes a colored console summary of the report
func Print(w io.Writer, r *runner.Report) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Include Gardener - Conformance Report")
	bold.Fprintln(w, "=====================================")
	fmt.Fprintf(w, "Analyzer: %s\n", r.Analyzer)
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintln(w)

	suite := ""
	for _, c := range r.Cases {
		if c.Suite != suite {
			suite = c.Suite
			bold.Fprintf(w, "%s\n", strings.ToUpper(suite))
		}

		switch c.Status {
		case runner.Passed:
			green.Fprintf(w, "  ✓ %s", c.Name)
			fmt.Fprintf(w, " (%d run(s), %s)\n", c.Runs, c.Duration.Round(time.Millisecond))
		case runner.Skipped:
			yellow.Fprintf(w, "  - %s", c.Name)
			fmt.Fprintf(w, " skipped: %s\n", c.Message)
		case runner.Failed:
			red.Fprintf(w, "  ✗ %s\n", c.Name)
			fmt.Fprintf(w, "    %s\n", indent(c.Message, "    "))
			if c.Diff != nil && !c.Diff.Empty() {
				for _, n := range c.Diff.AddedNodes {
					yellow.Fprintf(w, "    + node %s\n", n)
				}
				for _, n := range c.Diff.RemovedNodes {
					yellow.Fprintf(w, "    - node %s\n", n)
				}
				for _, e := range c.Diff.AddedEdges {
					yellow.Fprintf(w, "    + edge %s\n", e)
				}
				for _, e := range c.Diff.RemovedEdges {
					yellow.Fprintf(w, "    - edge %s\n", e)
				}
			}
		}

		for _, cy := range c.Cycles {
			cyan.Fprintf(w, "    cycle: %s\n", strings.Join(cy.Labels, " <-> "))
		}
	}
	fmt.Fprintln(w)

	total := r.Passed + r.Failed
	summary := green
	if r.Failed > 0 {
		summary = red
	}
	summary.Fprintf(w, "Summary: %d/%d cases passed", r.Passed, total)
	if r.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", r.Skipped)
	}
	fmt.Fprintf(w, " in %s\n", r.Duration.Round(time.Millisecond))

	if r.OK() && total > 0 {
		green.Fprintln(w, "✓ The analyzer conforms!")
	}
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}
