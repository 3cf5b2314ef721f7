package cycles

import (
	"sort"

	"github.com/ritzau/gardener-conformance/pkg/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycle is a set of files that include each other, directly or transitively
type Cycle struct {
	Labels []string `json:"labels" yaml:"labels"`
}

// FindCycles returns the include cycles of g: every strongly connected
// component with more than one node, plus files that include themselves.
// Labels within a cycle and the cycles themselves are sorted.
func FindCycles(g *graph.Graph) []Cycle {
	cycles := make([]Cycle, 0)

	for _, scc := range topo.TarjanSCC(g.Directed()) {
		if len(scc) == 1 {
			label, _ := g.Label(scc[0].ID())
			if !includesItself(g, label) {
				continue
			}
		}

		labels := make([]string, 0, len(scc))
		for _, node := range scc {
			if label, ok := g.Label(node.ID()); ok {
				labels = append(labels, label)
			}
		}
		sort.Strings(labels)
		cycles = append(cycles, Cycle{Labels: labels})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Labels[0] < cycles[j].Labels[0]
	})
	return cycles
}

func includesItself(g *graph.Graph, label string) bool {
	for _, child := range g.Children(label) {
		if child == label {
			return true
		}
	}
	return false
}
