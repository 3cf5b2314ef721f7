package formats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
)

const gardenerDOT = `digraph G {
0[label="src/f_1.c"];
1[label="iostream"];
2[label="inc/lib/f_1.h"];
3[label="inc/lib/f_3.h"];
0->1 [label="line 1"];
0->2 [label="line 2"];
2->3 [label="line 4"];
3->2 [label="line 1"];
}
`

const gardenerGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://graphml.graphdrawing.org/xmlns http://graphml.graphdrawing.org/xmlns/1.0/graphml.xsd">
  <key id="key0" for="edge" attr.name="line" attr.type="int" />
  <key id="key1" for="node" attr.name="name" attr.type="string" />
  <graph id="G" edgedefault="directed" parse.nodeids="canonical" parse.edgeids="canonical" parse.order="nodesfirst">
    <node id="n0">
      <data key="key1">src/f_1.c</data>
    </node>
    <node id="n1">
      <data key="key1">iostream</data>
    </node>
    <node id="n2">
      <data key="key1">inc/lib/f_1.h</data>
    </node>
    <node id="n3">
      <data key="key1">inc/lib/f_3.h</data>
    </node>
    <edge id="e0" source="n0" target="n1">
      <data key="key0">1</data>
    </edge>
    <edge id="e1" source="n0" target="n2">
      <data key="key0">2</data>
    </edge>
    <edge id="e2" source="n2" target="n3">
      <data key="key0">4</data>
    </edge>
    <edge id="e3" source="n3" target="n2">
      <data key="key0">1</data>
    </edge>
  </graph>
</graphml>
`

var sampleTable = graph.Table{
	"src/f_1.c":     {"iostream", "inc/lib/f_1.h"},
	"inc/lib/f_1.h": {"inc/lib/f_3.h"},
	"inc/lib/f_3.h": {"inc/lib/f_1.h"},
}

func TestDecodeDOT(t *testing.T) {
	g, err := DecodeDOT([]byte(gardenerDOT))
	if err != nil {
		t.Fatalf("DecodeDOT() error = %v", err)
	}

	if r := oracle.Compare(g, graph.MustFromTable(sampleTable)); !r.Equivalent {
		t.Errorf("Decoded DOT graph differs: %s", r.Detail)
	}
}

func TestDecodeDOT_Variants(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantErr   bool
	}{
		{"empty graph", "digraph G {\n}\n", 0, 0, false},
		{"implicit nodes", `digraph { a -> b -> c }`, 3, 2, false},
		{"quoted ids", `digraph { "lib/a.h" -> "lib/b.h" }`, 2, 1, false},
		{"subgraph target", `digraph { a -> { b c } }`, 3, 2, false},
		{"parallel edges", "digraph {\n0[label=\"a\"];\n1[label=\"b\"];\n0->1;\n0->1;\n}", 2, 2, false},
		{"duplicate label", "digraph {\n0[label=\"a\"];\n1[label=\"a\"];\n}", 0, 0, true},
		{"no graph", "", 0, 0, true},
		{"malformed", "digraph { a -> ", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := DecodeDOT([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeDOT() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if g.Len() != tt.wantNodes {
				t.Errorf("Expected %d nodes, got %d", tt.wantNodes, g.Len())
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("Expected %d edges, got %d", tt.wantEdges, g.EdgeCount())
			}
		})
	}
}

func TestDecodeDOT_QuotedLabel(t *testing.T) {
	g, err := DecodeDOT([]byte(`digraph { "n1" [label="lib/a.h"]; "n1" -> "n2" }`))
	if err != nil {
		t.Fatalf("DecodeDOT() error = %v", err)
	}
	if !g.HasNode("lib/a.h") || !g.HasNode("n2") {
		t.Errorf("Unexpected labels %v", g.Nodes())
	}
}

func TestDecodeGraphML(t *testing.T) {
	g, err := DecodeGraphML(strings.NewReader(gardenerGraphML))
	if err != nil {
		t.Fatalf("DecodeGraphML() error = %v", err)
	}

	if r := oracle.Compare(g, graph.MustFromTable(sampleTable)); !r.Equivalent {
		t.Errorf("Decoded GraphML graph differs: %s", r.Detail)
	}
}

func TestDecodeGraphML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `<graphml><graph>`},
		{"empty", ``},
		{"node without label", `<graphml><key id="key1" for="node"/><graph><node id="n0"/></graph></graphml>`},
		{"unknown edge target", `<graphml><key id="key1" for="node"/><graph><node id="n0"><data key="key1">a</data></node><edge source="n0" target="n9"/></graph></graphml>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeGraphML(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestDecodeGraphML_NoNodes(t *testing.T) {
	g, err := DecodeGraphML(strings.NewReader(`<graphml><key id="key1" for="node"/><graph id="G" edgedefault="directed"></graph></graphml>`))
	if err != nil {
		t.Fatalf("DecodeGraphML() error = %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("Expected 0 nodes, got %d", g.Len())
	}
}

func TestLabelKey(t *testing.T) {
	tests := []struct {
		name string
		keys []GraphMLKey
		want string
	}{
		{"key1 declared", []GraphMLKey{{ID: "key0", For: "edge"}, {ID: "key1", For: "node"}}, "key1"},
		{"named key", []GraphMLKey{{ID: "d0", For: "node", Name: "weight"}, {ID: "d1", For: "node", Name: "name"}}, "d1"},
		{"single node key", []GraphMLKey{{ID: "d7", For: "node"}}, "d7"},
		{"no keys", nil, DefaultLabelKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := labelKey(tt.keys); got != tt.want {
				t.Errorf("labelKey() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	want := graph.MustFromTable(graph.Table{
		"file1.py":          {"pack1/__init__.py", "pack1/__init__.py", "os"},
		"pack1/__init__.py": {"pickle"},
	})

	t.Run("dot", func(t *testing.T) {
		var buf bytes.Buffer
		if err := EncodeDOT(&buf, want); err != nil {
			t.Fatalf("EncodeDOT() error = %v", err)
		}
		got, err := DecodeDOT(buf.Bytes())
		if err != nil {
			t.Fatalf("DecodeDOT() error = %v\n%s", err, buf.String())
		}
		if r := oracle.Compare(got, want); !r.Equivalent {
			t.Error(r.Detail)
		}
	})

	t.Run("graphml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "graph.graphml")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := EncodeGraphML(f, want); err != nil {
			t.Fatalf("EncodeGraphML() error = %v", err)
		}
		f.Close()

		got, err := ReadGraphMLFile(path)
		if err != nil {
			t.Fatalf("ReadGraphMLFile() error = %v", err)
		}
		if r := oracle.Compare(got, want); !r.Equivalent {
			t.Error(r.Detail)
		}
	})
}
