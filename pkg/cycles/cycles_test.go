package cycles

import (
	"testing"

	"github.com/ritzau/gardener-conformance/pkg/graph"
)

func TestFindCycles_NoCycles(t *testing.T) {
	// A simple acyclic include chain: A -> B -> C
	g := graph.MustFromTable(graph.Table{
		"a.c": {"b.h"},
		"b.h": {"c.h"},
	})

	cycles := FindCycles(g)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindCycles_SimpleCycle(t *testing.T) {
	// The C fixture tree: lib/f_1.h and lib/f_3.h include each other
	g := graph.MustFromTable(graph.Table{
		"src/f_1.c":     {"inc/lib/f_1.h"},
		"inc/lib/f_1.h": {"inc/lib/f_3.h", "inc/lib2/f_4.h"},
		"inc/lib/f_3.h": {"inc/lib/f_1.h"},
	})

	cycles := FindCycles(g)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	labels := cycles[0].Labels
	if len(labels) != 2 || labels[0] != "inc/lib/f_1.h" || labels[1] != "inc/lib/f_3.h" {
		t.Errorf("Expected cycle [inc/lib/f_1.h inc/lib/f_3.h], got %v", labels)
	}
}

func TestFindCycles_MultipleCycles(t *testing.T) {
	// Cycle 1: A -> B -> A
	// Cycle 2: C -> D -> E -> C
	g := graph.MustFromTable(graph.Table{
		"a.h": {"b.h"},
		"b.h": {"a.h"},
		"c.h": {"d.h"},
		"d.h": {"e.h"},
		"e.h": {"c.h"},
	})

	cycles := FindCycles(g)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(cycles))
	}

	cycleSizes := make(map[int]int)
	for _, cycle := range cycles {
		cycleSizes[len(cycle.Labels)]++
	}

	if cycleSizes[2] != 1 || cycleSizes[3] != 1 {
		t.Errorf("Expected one 2-node cycle and one 3-node cycle, got: %v", cycleSizes)
	}
}

func TestFindCycles_SelfInclude(t *testing.T) {
	g := graph.MustFromTable(graph.Table{
		"a.h": {"a.h"},
		"b.h": {},
	})

	cycles := FindCycles(g)

	if len(cycles) != 1 || cycles[0].Labels[0] != "a.h" {
		t.Errorf("Expected self-include cycle on a.h, got %v", cycles)
	}
}
