package graph

import (
	"fmt"
	"sort"
)

// Table is the literal form of a graph: label -> child labels.
// A label that only appears as a child is still a node (a leaf).
// Listing a child twice means two edges.
type Table map[string][]string

// FromTable builds a graph from a table. Nodes are added in sorted label order.
func FromTable(t Table) (*Graph, error) {
	g := New()
	for _, label := range t.Labels() {
		if err := g.AddNode(label); err != nil {
			return nil, err
		}
	}

	for _, source := range sortedKeys(t) {
		for _, target := range t[source] {
			if err := g.AddEdge(source, target); err != nil {
				return nil, fmt.Errorf("building graph from table: %w", err)
			}
		}
	}
	return g, nil
}

// MustFromTable is like FromTable but panics on error. Meant for fixtures.
func MustFromTable(t Table) *Graph {
	g, err := FromTable(t)
	if err != nil {
		panic(err)
	}
	return g
}

// Labels returns every label mentioned in the table, sorted and unique
func (t Table) Labels() []string {
	seen := make(map[string]bool)
	for source, children := range t {
		seen[source] = true
		for _, child := range children {
			seen[child] = true
		}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ToTable converts a graph back to its literal form. Every node gets an
// entry, leaves map to an empty slice. Children are sorted.
func (g *Graph) ToTable() Table {
	t := make(Table, g.Len())
	for _, label := range g.order {
		children := g.Children(label)
		sort.Strings(children)
		if children == nil {
			children = []string{}
		}
		t[label] = children
	}
	return t
}

func sortedKeys(t Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
