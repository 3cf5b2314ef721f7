package oracle

import (
	"fmt"
	"sort"

	"github.com/ritzau/gardener-conformance/pkg/graph"
)

// Edge is a source -> target pair in a diff
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Source, e.Target)
}

// GraphDiff lists everything that separates an actual graph from the
// expected one. Unlike Compare it does not stop at the first mismatch.
type GraphDiff struct {
	AddedNodes   []string `json:"addedNodes" yaml:"addedNodes"`     // only in actual
	RemovedNodes []string `json:"removedNodes" yaml:"removedNodes"` // only in expected
	AddedEdges   []Edge   `json:"addedEdges" yaml:"addedEdges"`
	RemovedEdges []Edge   `json:"removedEdges" yaml:"removedEdges"`
}

// Empty reports whether the diff has no entries
func (d *GraphDiff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// ComputeDiff computes the full label-indexed difference between two graphs.
// Edge multiplicity counts: an edge present twice in actual and once in
// expected shows up once in AddedEdges.
func ComputeDiff(actual, expected *graph.Graph) *GraphDiff {
	diff := &GraphDiff{
		AddedNodes:   make([]string, 0),
		RemovedNodes: make([]string, 0),
		AddedEdges:   make([]Edge, 0),
		RemovedEdges: make([]Edge, 0),
	}
	if actual == nil {
		actual = graph.New()
	}
	if expected == nil {
		expected = graph.New()
	}

	for _, label := range actual.Nodes() {
		if !expected.HasNode(label) {
			diff.AddedNodes = append(diff.AddedNodes, label)
		}
	}
	for _, label := range expected.Nodes() {
		if !actual.HasNode(label) {
			diff.RemovedNodes = append(diff.RemovedNodes, label)
		}
	}

	got := edgeCounts(actual)
	want := edgeCounts(expected)

	for e, n := range got {
		for i := want[e]; i < n; i++ {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for e, n := range want {
		for i := got[e]; i < n; i++ {
			diff.RemovedEdges = append(diff.RemovedEdges, e)
		}
	}

	sort.Strings(diff.AddedNodes)
	sort.Strings(diff.RemovedNodes)
	sortEdges(diff.AddedEdges)
	sortEdges(diff.RemovedEdges)
	return diff
}

func edgeCounts(g *graph.Graph) map[Edge]int {
	counts := make(map[Edge]int)
	for _, e := range g.Edges() {
		counts[Edge{Source: e[0], Target: e[1]}]++
	}
	return counts
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}
