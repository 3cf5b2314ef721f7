package scenario

import (
	"fmt"
	"strconv"
	"strings"
)

// Language selects the analyzer front end
type Language string

const (
	// LanguageDefault omits -l; the analyzer falls back to C/C++
	LanguageDefault Language = ""
	LanguageC       Language = "c"
	LanguagePython  Language = "py"
	LanguageRuby    Language = "ruby"
)

// Format is the graph serialization requested from the analyzer
type Format string

const (
	// FormatDefault omits -f; the analyzer emits DOT
	FormatDefault Format = ""
	FormatDOT     Format = "dot"
	// FormatXML is the GraphML serialization
	FormatXML Format = "xml"
)

// Decodes returns the format the payload must be decoded with
func (f Format) Decodes() Format {
	if f == FormatDefault {
		return FormatDOT
	}
	return f
}

// Scenario describes one analyzer invocation
type Scenario struct {
	Name string

	// Root is the directory to scan; empty omits the positional argument
	Root            string
	Language        Language
	IncludePaths    []string
	ExcludePatterns []string

	// Level and Jobs are omitted from the command line when nil
	Level *int
	Jobs  *int

	Format Format
	// Output, when set, makes the analyzer write the graph to this file
	Output string

	// Extra is appended verbatim, e.g. "--help" or an unknown option
	Extra []string
}

// Int returns a pointer to n, for Level and Jobs
func Int(n int) *int {
	return &n
}

// Args builds the analyzer argument vector. The positional root comes first,
// the way the analyzer's own test harness calls it.
func (s Scenario) Args() []string {
	var args []string
	if s.Root != "" {
		args = append(args, s.Root)
	}
	if s.Language != LanguageDefault {
		args = append(args, "-l", string(s.Language))
	}
	for _, p := range s.IncludePaths {
		args = append(args, "-I", p)
	}
	for _, e := range s.ExcludePatterns {
		args = append(args, "-e", e)
	}
	if s.Level != nil {
		args = append(args, "-L", strconv.Itoa(*s.Level))
	}
	if s.Jobs != nil {
		args = append(args, "-j", strconv.Itoa(*s.Jobs))
	}
	if s.Format != FormatDefault {
		args = append(args, "-f", string(s.Format))
	}
	if s.Output != "" {
		args = append(args, "-o", s.Output)
	}
	return append(args, s.Extra...)
}

// With returns a copy of s changed by the given options
func (s Scenario) With(opts ...Option) Scenario {
	// Slices are copied so that derived scenarios never share backing arrays.
	s.IncludePaths = append([]string(nil), s.IncludePaths...)
	s.ExcludePatterns = append([]string(nil), s.ExcludePatterns...)
	s.Extra = append([]string(nil), s.Extra...)
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option modifies a scenario
type Option func(*Scenario)

func WithName(name string) Option {
	return func(s *Scenario) { s.Name = name }
}

func WithLevel(level int) Option {
	return func(s *Scenario) { s.Level = Int(level) }
}

func WithJobs(jobs int) Option {
	return func(s *Scenario) { s.Jobs = Int(jobs) }
}

func WithFormat(f Format) Option {
	return func(s *Scenario) { s.Format = f }
}

func WithOutput(path string) Option {
	return func(s *Scenario) { s.Output = path }
}

func WithLanguage(l Language) Option {
	return func(s *Scenario) { s.Language = l }
}

func WithInclude(paths ...string) Option {
	return func(s *Scenario) { s.IncludePaths = append(s.IncludePaths, paths...) }
}

func WithExclude(patterns ...string) Option {
	return func(s *Scenario) { s.ExcludePatterns = append(s.ExcludePatterns, patterns...) }
}

func WithExtra(args ...string) Option {
	return func(s *Scenario) { s.Extra = append(s.Extra, args...) }
}

func (s Scenario) String() string {
	name := s.Name
	if name == "" {
		name = "scenario"
	}
	return fmt.Sprintf("%s [%s]", name, strings.Join(s.Args(), " "))
}
