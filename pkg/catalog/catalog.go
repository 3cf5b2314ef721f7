// Package catalog holds the expected analyzer results for the fixture trees.
//
// References are literal label tables or, for scenarios where only the node
// count is known, golden counts. They are keyed by language and scenario
// name and never derived from an analyzer run.
package catalog

import (
	"fmt"
	"sort"

	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// Scenario names shared by every language
const (
	ScenarioReference = "reference"
	// ScenarioExcludeOne and ScenarioExcludeTwo exclude one and two scan roots
	ScenarioExcludeOne = "exclude-one"
	ScenarioExcludeTwo = "exclude-two"
)

// Level names the scenario run with -L n
func Level(n int) string {
	return fmt.Sprintf("level-%d", n)
}

// Key identifies a reference
type Key struct {
	Language scenario.Language
	Scenario string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Language, k.Scenario)
}

// Reference is the expected result of one scenario
type Reference struct {
	Key
	Mode oracle.Mode

	// Table is nil when only the node count is known
	Table graph.Table
	Nodes int
}

// Graph builds the expected graph from the table
func (r Reference) Graph() (*graph.Graph, error) {
	if r.Table == nil {
		return nil, fmt.Errorf("reference %s has no table", r.Key)
	}
	return graph.FromTable(r.Table)
}

// Tree describes a fixture source tree
type Tree struct {
	Language scenario.Language

	// Roots are the files the analyzer opens, relative to the tree
	Roots []string

	// Include lists the include directories the reference run passes,
	// relative to the tree and spelled the way they are passed to -I
	Include []string

	// Excludes maps the exclude scenarios to their patterns
	Excludes map[string][]string
}

// Catalog is the set of references and trees
type Catalog struct {
	refs  map[Key]Reference
	trees map[scenario.Language]Tree
}

// Default returns the catalog for the bundled C, Python and Ruby fixtures
func Default() *Catalog {
	c := &Catalog{
		refs:  make(map[Key]Reference),
		trees: make(map[scenario.Language]Tree),
	}

	c.AddTree(Tree{
		Language: scenario.LanguageC,
		Roots:    cRoots,
		Include:  []string{"inc/"},
		Excludes: map[string][]string{
			ScenarioExcludeOne: {`_2\.c`},
			ScenarioExcludeTwo: {`_2\.c`, `_3\.c`},
		},
	})
	c.AddTree(Tree{Language: scenario.LanguagePython, Roots: pythonRoots})
	c.AddTree(Tree{Language: scenario.LanguageRuby, Roots: rubyRoots, Include: []string{"lib"}})

	c.Set(Table(scenario.LanguageC, ScenarioReference, oracle.Structural, cReference))
	c.Set(Table(scenario.LanguagePython, ScenarioReference, oracle.Cardinality, pythonReference))
	c.Set(Table(scenario.LanguageRuby, ScenarioReference, oracle.Structural, rubyReference))

	// Without -I the headers resolve relative to the including file, so
	// the level runs see more distinct labels than the reference run.
	c.Set(Count(scenario.LanguageC, Level(0), 0))
	c.Set(Count(scenario.LanguageC, Level(1), 9))
	c.Set(Count(scenario.LanguageC, Level(2), 15))

	c.Set(Count(scenario.LanguageC, ScenarioExcludeOne, 9))
	c.Set(Count(scenario.LanguageC, ScenarioExcludeTwo, 7))

	return c
}

// Table returns a reference backed by a literal table
func Table(lang scenario.Language, name string, mode oracle.Mode, t graph.Table) Reference {
	return Reference{
		Key:   Key{Language: lang, Scenario: name},
		Mode:  mode,
		Table: t,
		Nodes: len(t.Labels()),
	}
}

// Count returns a reference that only fixes the node count
func Count(lang scenario.Language, name string, nodes int) Reference {
	return Reference{
		Key:   Key{Language: lang, Scenario: name},
		Mode:  oracle.Cardinality,
		Nodes: nodes,
	}
}

// Set adds or replaces a reference
func (c *Catalog) Set(r Reference) {
	c.refs[r.Key] = r
}

// AddTree adds or replaces the tree of a language
func (c *Catalog) AddTree(t Tree) {
	c.trees[t.Language] = t
}

// Lookup returns the reference of a scenario
func (c *Catalog) Lookup(lang scenario.Language, name string) (Reference, bool) {
	r, ok := c.refs[Key{Language: lang, Scenario: name}]
	return r, ok
}

// Tree returns the fixture tree of a language
func (c *Catalog) Tree(lang scenario.Language) (Tree, bool) {
	t, ok := c.trees[lang]
	return t, ok
}

// Keys lists all reference keys in a stable order
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.refs))
	for k := range c.refs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Language != keys[j].Language {
			return keys[i].Language < keys[j].Language
		}
		return keys[i].Scenario < keys[j].Scenario
	})
	return keys
}

// Project applies exclusion and level bounds to the language's reference
// graph: a node is kept iff it is a non-excluded scan root or reachable
// from one within the level.
func (c *Catalog) Project(lang scenario.Language, excludes []string, level int) (*graph.Graph, error) {
	ref, ok := c.Lookup(lang, ScenarioReference)
	if !ok {
		return nil, fmt.Errorf("no reference graph for %q", lang)
	}
	tree, ok := c.Tree(lang)
	if !ok {
		return nil, fmt.Errorf("no fixture tree for %q", lang)
	}

	full, err := ref.Graph()
	if err != nil {
		return nil, err
	}
	res, err := graph.CompileExcludes(excludes)
	if err != nil {
		return nil, err
	}
	return graph.Project(full, tree.Roots, res, level)
}

// Calibrate replaces the level goldens of lang with the node counts of the
// projected reference graph. The shipped goldens describe the real analyzer
// scanning without include paths; an analyzer that resolves every include,
// like the simulator, needs the projected counts instead.
func (c *Catalog) Calibrate(lang scenario.Language, levels ...int) error {
	for _, level := range levels {
		g, err := c.Project(lang, nil, level)
		if err != nil {
			return fmt.Errorf("calibrating level %d: %w", level, err)
		}
		c.Set(Count(lang, Level(level), g.Len()))
	}
	return nil
}
