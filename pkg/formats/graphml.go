package formats

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/ritzau/gardener-conformance/pkg/graph"
)

// DefaultLabelKey is the data key include gardener stores node labels under
const DefaultLabelKey = "key1"

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

// GraphMLDocument mirrors the subset of GraphML the analyzer emits
type GraphMLDocument struct {
	XMLName xml.Name       `xml:"graphml"`
	Xmlns   string         `xml:"xmlns,attr,omitempty"`
	Keys    []GraphMLKey   `xml:"key"`
	Graphs  []GraphMLGraph `xml:"graph"`
}

type GraphMLKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr,omitempty"`
	Type string `xml:"attr.type,attr,omitempty"`
}

type GraphMLGraph struct {
	ID          string        `xml:"id,attr,omitempty"`
	EdgeDefault string        `xml:"edgedefault,attr,omitempty"`
	Nodes       []GraphMLNode `xml:"node"`
	Edges       []GraphMLEdge `xml:"edge"`
}

type GraphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []GraphMLData `xml:"data"`
}

type GraphMLEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []GraphMLData `xml:"data"`
}

type GraphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// ReadGraphMLFile decodes the GraphML document stored at path
func ReadGraphMLFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GraphML file: %w", err)
	}
	defer f.Close()

	return DecodeGraphML(f)
}

// DecodeGraphML decodes a GraphML document into a graph. Nodes are
// identified by the value of their label key; GraphML node IDs are dropped.
func DecodeGraphML(r io.Reader) (*graph.Graph, error) {
	var doc GraphMLDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse GraphML: %w", err)
	}

	g := graph.New()
	if len(doc.Graphs) == 0 {
		return g, nil
	}
	gml := doc.Graphs[0]
	key := labelKey(doc.Keys)

	labels := make(map[string]string, len(gml.Nodes))
	for _, n := range gml.Nodes {
		label, ok := dataValue(n.Data, key)
		if !ok {
			return nil, fmt.Errorf("GraphML node %q has no %s data", n.ID, key)
		}
		if err := g.AddNode(label); err != nil {
			return nil, fmt.Errorf("GraphML node %q: %w", n.ID, err)
		}
		labels[n.ID] = label
	}

	for _, e := range gml.Edges {
		source, ok := labels[e.Source]
		if !ok {
			return nil, fmt.Errorf("GraphML edge %q: unknown source node %q", e.ID, e.Source)
		}
		target, ok := labels[e.Target]
		if !ok {
			return nil, fmt.Errorf("GraphML edge %q: unknown target node %q", e.ID, e.Target)
		}
		if err := g.AddEdge(source, target); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// labelKey picks the data key holding node labels: key1 when declared for
// nodes, otherwise a node key named "name" or "label", otherwise the only
// node key.
func labelKey(keys []GraphMLKey) string {
	var nodeKeys []GraphMLKey
	for _, k := range keys {
		if k.For == "node" || k.For == "all" {
			nodeKeys = append(nodeKeys, k)
		}
	}

	for _, k := range nodeKeys {
		if k.ID == DefaultLabelKey {
			return k.ID
		}
	}
	for _, k := range nodeKeys {
		if k.Name == "name" || k.Name == "label" {
			return k.ID
		}
	}
	if len(nodeKeys) == 1 {
		return nodeKeys[0].ID
	}
	return DefaultLabelKey
}

func dataValue(data []GraphMLData, key string) (string, bool) {
	for _, d := range data {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// EncodeGraphML writes g the way include gardener does: one node key
// (key1) holding the label, nodes n0..nN in node order.
func EncodeGraphML(w io.Writer, g *graph.Graph) error {
	doc := GraphMLDocument{
		Xmlns: graphMLNamespace,
		Keys: []GraphMLKey{
			{ID: DefaultLabelKey, For: "node", Name: "name", Type: "string"},
		},
	}

	gml := GraphMLGraph{ID: "G", EdgeDefault: "directed"}
	ids := make(map[string]string, g.Len())
	for i, label := range g.Nodes() {
		id := fmt.Sprintf("n%d", i)
		ids[label] = id
		gml.Nodes = append(gml.Nodes, GraphMLNode{
			ID:   id,
			Data: []GraphMLData{{Key: DefaultLabelKey, Value: label}},
		})
	}
	for _, label := range g.Nodes() {
		for _, child := range g.Children(label) {
			gml.Edges = append(gml.Edges, GraphMLEdge{
				ID:     fmt.Sprintf("e%d", len(gml.Edges)),
				Source: ids[label],
				Target: ids[child],
			})
		}
	}
	doc.Graphs = []GraphMLGraph{gml}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GraphML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
