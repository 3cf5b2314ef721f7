package formats

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ritzau/gardener-conformance/pkg/graph"
	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

// DecodeDOT parses a Graphviz document and returns its first graph.
//
// Node statements carry the file name in their label attribute; the DOT IDs
// are run-local numbers and are dropped. A node that appears only in an edge
// statement is labelled with its ID.
func DecodeDOT(data []byte) (*graph.Graph, error) {
	file, err := dot.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}
	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("DOT document contains no graph")
	}

	c := &dotCollector{labels: make(map[string]string)}
	c.walk(file.Graphs[0].Stmts)

	g := graph.New()
	for _, id := range c.order {
		if err := g.AddNode(c.labels[id]); err != nil {
			return nil, fmt.Errorf("DOT node %s: %w", id, err)
		}
	}
	for _, e := range c.edges {
		if err := g.AddEdge(c.labels[e[0]], c.labels[e[1]]); err != nil {
			return nil, fmt.Errorf("DOT edge %s -> %s: %w", e[0], e[1], err)
		}
	}
	return g, nil
}

// dotCollector flattens statements, subgraphs included, into nodes and edges
type dotCollector struct {
	order  []string          // DOT IDs in first-seen order
	labels map[string]string // DOT ID -> label
	edges  [][2]string       // pairs of DOT IDs
}

func (c *dotCollector) walk(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			id := unquote(s.Node.ID)
			c.touch(id)
			for _, attr := range s.Attrs {
				if attr.Key == "label" {
					c.labels[id] = unquote(attr.Val)
				}
			}
		case *ast.EdgeStmt:
			from := c.vertex(s.From)
			for to := s.To; to != nil; to = to.To {
				next := c.vertex(to.Vertex)
				for _, f := range from {
					for _, t := range next {
						c.edges = append(c.edges, [2]string{f, t})
					}
				}
				from = next
			}
		case *ast.Subgraph:
			c.walk(s.Stmts)
		}
	}
}

// vertex returns the DOT IDs a vertex stands for. A subgraph vertex stands
// for every node declared inside it.
func (c *dotCollector) vertex(v ast.Vertex) []string {
	switch v := v.(type) {
	case *ast.Node:
		id := unquote(v.ID)
		c.touch(id)
		return []string{id}
	case *ast.Subgraph:
		before := len(c.order)
		c.walk(v.Stmts)
		ids := make([]string, len(c.order)-before)
		copy(ids, c.order[before:])
		return ids
	}
	return nil
}

func (c *dotCollector) touch(id string) {
	if _, ok := c.labels[id]; ok {
		return
	}
	c.labels[id] = id
	c.order = append(c.order, id)
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	// DOT escapes such as \l are not Go escapes; only \" needs undoing.
	return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
}

// EncodeDOT writes g in the layout include gardener uses: numeric node IDs
// in node order, labels as attributes.
func EncodeDOT(w io.Writer, g *graph.Graph) error {
	var buf bytes.Buffer
	ids := make(map[string]int, g.Len())

	buf.WriteString("digraph G {\n")
	for i, label := range g.Nodes() {
		ids[label] = i
		fmt.Fprintf(&buf, "%d[label=%s];\n", i, strconv.Quote(label))
	}
	for _, label := range g.Nodes() {
		for _, child := range g.Children(label) {
			fmt.Fprintf(&buf, "%d->%d ;\n", ids[label], ids[child])
		}
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}
