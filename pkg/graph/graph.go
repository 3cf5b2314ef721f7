package graph

import (
	"errors"
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

var (
	// ErrDuplicateLabel is returned when a node label is added twice
	ErrDuplicateLabel = errors.New("duplicate node label")
	// ErrUnknownLabel is returned when an edge references a label that is not a node
	ErrUnknownLabel = errors.New("unknown node label")
)

// Graph is a directed dependency graph whose nodes are identified by label.
// Node IDs are local to one Graph value and carry no meaning across graphs.
// Parallel edges are kept: including the same file twice yields two edges.
type Graph struct {
	graph  *multi.DirectedGraph
	ids    map[string]int64 // label -> gonum node ID
	labels map[int64]string // gonum node ID -> label
	order  []string         // labels in insertion order
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		graph:  multi.NewDirectedGraph(),
		ids:    make(map[string]int64),
		labels: make(map[int64]string),
	}
}

// AddNode adds a node with the given label.
// Returns ErrDuplicateLabel if the label is already present.
func (g *Graph) AddNode(label string) error {
	if _, exists := g.ids[label]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}

	node := g.graph.NewNode()
	g.graph.AddNode(node)

	g.ids[label] = node.ID()
	g.labels[node.ID()] = label
	g.order = append(g.order, label)
	return nil
}

// AddEdge adds a directed edge source -> target.
// Both labels must already exist; adding the same edge twice stores it twice.
func (g *Graph) AddEdge(source, target string) error {
	from, ok := g.ids[source]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrUnknownLabel, source)
	}
	to, ok := g.ids[target]
	if !ok {
		return fmt.Errorf("%w: edge target %q", ErrUnknownLabel, target)
	}

	g.graph.SetLine(g.graph.NewLine(g.graph.Node(from), g.graph.Node(to)))
	return nil
}

// HasNode reports whether a node with the label exists
func (g *Graph) HasNode(label string) bool {
	_, ok := g.ids[label]
	return ok
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.ids)
}

// Nodes returns all labels in insertion order
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.order))
	copy(nodes, g.order)
	return nodes
}

// Children returns the targets of all edges leaving label, one entry per
// edge. The order is unspecified.
func (g *Graph) Children(label string) []string {
	id, ok := g.ids[label]
	if !ok {
		return nil
	}

	var children []string
	to := g.graph.From(id)
	for to.Next() {
		targetID := to.Node().ID()
		n := g.graph.Lines(id, targetID).Len()
		for i := 0; i < n; i++ {
			children = append(children, g.labels[targetID])
		}
	}
	return children
}

// Edges returns all edges as [source, target] pairs, sorted
func (g *Graph) Edges() [][2]string {
	var edges [][2]string
	for _, label := range g.order {
		for _, child := range g.Children(label) {
			edges = append(edges, [2]string{label, child})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// EdgeCount returns the number of edges including duplicates
func (g *Graph) EdgeCount() int {
	count := 0
	for _, label := range g.order {
		count += len(g.Children(label))
	}
	return count
}

// Label returns the label of a gonum node ID
func (g *Graph) Label(id int64) (string, bool) {
	label, ok := g.labels[id]
	return label, ok
}

// Directed exposes the underlying gonum graph for algorithms such as SCC search
func (g *Graph) Directed() gonum.Directed {
	return g.graph
}
