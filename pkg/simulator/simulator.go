// Package simulator is an in-process stand-in for include gardener.
//
// It accepts the analyzer's command line, "scans" in-memory trees whose
// include relation is known up front and emits DOT or GraphML exactly where
// the real binary would. Scanning runs on a worker pool; per-root results
// are merged by a single writer keyed on label, so node IDs depend on
// completion order while the graph content does not.
package simulator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/formats"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// Version is reported by -v
const Version = "0.2.0"

// Tree is a source tree the simulator can scan
type Tree struct {
	Language scenario.Language
	Roots    []string
	Table    graph.Table
}

// Analyzer implements gateway.Executor
type Analyzer struct {
	trees map[string]Tree
}

var _ gateway.Executor = (*Analyzer)(nil)

// New creates an analyzer that knows the given trees by root path
func New(trees map[string]Tree) *Analyzer {
	return &Analyzer{trees: trees}
}

// FromCatalog mounts the reference tree of every language at the given directory
func FromCatalog(cat *catalog.Catalog, dirs map[scenario.Language]string) (*Analyzer, error) {
	trees := make(map[string]Tree, len(dirs))
	for lang, dir := range dirs {
		ref, ok := cat.Lookup(lang, catalog.ScenarioReference)
		if !ok || ref.Table == nil {
			return nil, fmt.Errorf("no reference table for %q", lang)
		}
		tree, ok := cat.Tree(lang)
		if !ok {
			return nil, fmt.Errorf("no fixture tree for %q", lang)
		}
		trees[cleanRoot(dir)] = Tree{Language: lang, Roots: tree.Roots, Table: ref.Table}
	}
	return New(trees), nil
}

func cleanRoot(p string) string {
	if p == "/" {
		return p
	}
	return strings.TrimRight(p, "/")
}

// options is the parsed command line
type options struct {
	root     string
	include  []string
	exclude  []string
	level    int
	jobs     int
	format   string
	output   string
	language string
	help     bool
	version  bool
}

// usageError is reported verbatim on stderr
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func errorf(format string, args ...any) error {
	return &usageError{msg: "Error: " + fmt.Sprintf(format, args...)}
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("include_gardener", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	fs.StringArrayVarP(&o.include, "include", "I", nil, "Include path, can be given multiple times")
	fs.StringArrayVarP(&o.exclude, "exclude", "e", nil, "Regular expression of files to skip, can be given multiple times")
	fs.IntVarP(&o.level, "level", "L", graph.Unbounded, "Maximum include depth, unbounded when omitted")
	fs.IntVarP(&o.jobs, "jobs", "j", 1, "Number of worker threads")
	fs.StringVarP(&o.format, "format", "f", string(scenario.FormatDOT), "Output format: dot or xml")
	fs.StringVarP(&o.output, "output", "o", "", "Write the graph to this file instead of stdout")
	fs.StringVarP(&o.language, "language", "l", string(scenario.LanguageC), "Language: c, py or ruby")
	fs.BoolVarP(&o.help, "help", "h", false, "Show this help")
	fs.BoolVarP(&o.version, "version", "v", false, "Show the version")
	return fs
}

var (
	unknownLong  = regexp.MustCompile(`^unknown flag: (--\S+)`)
	unknownShort = regexp.MustCompile(`^unknown shorthand flag: '(.)'`)
)

// parse maps pflag errors onto the analyzer's diagnostics
func parse(args []string) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := newFlagSet(o)

	if err := fs.Parse(args); err != nil {
		msg := err.Error()
		if m := unknownLong.FindStringSubmatch(msg); m != nil {
			return nil, nil, &usageError{msg: fmt.Sprintf("unrecognised option '%s'", m[1])}
		}
		if m := unknownShort.FindStringSubmatch(msg); m != nil {
			return nil, nil, &usageError{msg: fmt.Sprintf("unrecognised option '-%s'", m[1])}
		}
		return nil, nil, errorf("%s", msg)
	}

	if fs.NArg() > 1 {
		return nil, nil, errorf("only one input path is supported, got %d", fs.NArg())
	}
	if fs.NArg() == 1 {
		o.root = cleanRoot(fs.Arg(0))
	}
	return o, fs, nil
}

func (o *options) validate(fs *pflag.FlagSet) error {
	switch scenario.Language(o.language) {
	case scenario.LanguageC, scenario.LanguagePython, scenario.LanguageRuby:
	default:
		return errorf("unsupported language '%s'", o.language)
	}
	if o.jobs <= 0 {
		return errorf("invalid number of jobs: %d", o.jobs)
	}
	if fs.Changed("level") && o.level < 0 {
		return errorf("invalid level: %d", o.level)
	}
	switch scenario.Format(o.format) {
	case scenario.FormatDOT, scenario.FormatXML:
	default:
		return errorf("unsupported format '%s'", o.format)
	}
	if o.root == "" {
		return errorf("no input path given")
	}
	return nil
}

func usage(fs *pflag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Usage: include_gardener [options] <path>\n\n")
	b.WriteString("Options:\n")
	b.WriteString(fs.FlagUsages())
	return b.String()
}

// Run executes one analyzer invocation
func (a *Analyzer) Run(ctx context.Context, args []string) (gateway.Output, error) {
	var stdout, stderr bytes.Buffer

	if err := a.run(ctx, args, &stdout); err != nil {
		if _, ok := err.(*usageError); !ok {
			return gateway.Output{}, err
		}
		fmt.Fprintln(&stderr, err.Error())
		stdout.Reset()
	}
	return gateway.Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func (a *Analyzer) run(ctx context.Context, args []string, stdout io.Writer) error {
	o, fs, err := parse(args)
	if err != nil {
		return err
	}
	if o.help {
		_, err := io.WriteString(stdout, usage(fs))
		return err
	}
	if o.version {
		_, err := fmt.Fprintf(stdout, "include_gardener Version %s (simulated)\n", Version)
		return err
	}
	if err := o.validate(fs); err != nil {
		return err
	}

	excludes, err := graph.CompileExcludes(o.exclude)
	if err != nil {
		return errorf("%v", err)
	}

	tree, ok := a.trees[o.root]
	if !ok {
		return errorf("cannot open '%s'", o.root)
	}
	var roots []string
	if tree.Language == scenario.Language(o.language) {
		roots = tree.Roots
	}

	g, err := scan(ctx, tree.Table, roots, excludes, o.level, o.jobs)
	if err != nil {
		return err
	}
	logging.TraceContext(ctx, "simulated scan",
		"root", o.root, "jobs", o.jobs, "nodes", g.Len(), "edges", g.EdgeCount())

	if o.output == "" {
		return encode(stdout, scenario.Format(o.format), g)
	}

	f, err := os.Create(o.output)
	if err != nil {
		return errorf("cannot write '%s': %v", o.output, err)
	}
	if err := encode(f, scenario.Format(o.format), g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, f scenario.Format, g *graph.Graph) error {
	if f == scenario.FormatXML {
		return formats.EncodeGraphML(w, g)
	}
	return formats.EncodeDOT(w, g)
}
