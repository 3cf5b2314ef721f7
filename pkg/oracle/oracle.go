package oracle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ritzau/gardener-conformance/pkg/graph"
)

// Mode selects how strictly two graphs are compared
type Mode string

const (
	// Structural requires equal label sets and equal children multisets per label
	Structural Mode = "structural"
	// Cardinality only requires equal label multisets, edges are ignored
	Cardinality Mode = "cardinality"
)

// Result is the verdict of one comparison
type Result struct {
	Equivalent bool   `json:"equivalent" yaml:"equivalent"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Label is the first label that failed to match, if any
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Children of Label on both sides, sorted
	ActualChildren   []string `json:"actualChildren,omitempty" yaml:"actualChildren,omitempty"`
	ExpectedChildren []string `json:"expectedChildren,omitempty" yaml:"expectedChildren,omitempty"`

	// Multiset difference of the children: Extra only in actual, Missing only in expected
	Extra   []string `json:"extra,omitempty" yaml:"extra,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func (r Result) String() string {
	if r.Equivalent {
		return "equivalent"
	}
	return r.Detail
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

// Check compares actual against expected using the given mode
func Check(mode Mode, actual, expected *graph.Graph) Result {
	if mode == Cardinality {
		return CompareCardinality(actual, expected)
	}
	return Compare(actual, expected)
}

// Compare decides whether actual and expected are structurally equivalent.
//
// Nodes are matched by label only. For every label the children of both
// sides are compared as multisets: order is ignored, duplicates count.
func Compare(actual, expected *graph.Graph) Result {
	if r, done := checkPresent(actual, expected); done {
		return r
	}

	if actual.Len() != expected.Len() {
		return Result{
			Detail: fmt.Sprintf("node count differs: actual %d, expected %d", actual.Len(), expected.Len()),
		}
	}

	// Sorted so that the reported label does not depend on map order.
	labels := actual.Nodes()
	sort.Strings(labels)

	for _, label := range labels {
		if !expected.HasNode(label) {
			return Result{
				Label:          label,
				ActualChildren: sorted(actual.Children(label)),
				Detail:         fmt.Sprintf("node %q not found in expected graph", label),
			}
		}
	}

	for _, label := range labels {
		got := sorted(actual.Children(label))
		want := sorted(expected.Children(label))

		extra, missing := multisetDiff(got, want)
		if len(extra) == 0 && len(missing) == 0 {
			continue
		}

		return Result{
			Label:            label,
			ActualChildren:   got,
			ExpectedChildren: want,
			Extra:            extra,
			Missing:          missing,
			Detail: fmt.Sprintf("children of %q differ (-expected +actual):\n%s",
				label, cmp.Diff(want, got, sortStrings, cmpopts.EquateEmpty())),
		}
	}

	return Result{Equivalent: true}
}

// CompareCardinality compares only the multisets of labels, ignoring edges.
// It is used where a scenario asserts which files are present but not how
// they are connected.
func CompareCardinality(actual, expected *graph.Graph) Result {
	if r, done := checkPresent(actual, expected); done {
		return r
	}

	got := sorted(actual.Nodes())
	want := sorted(expected.Nodes())

	extra, missing := multisetDiff(got, want)
	if len(extra) == 0 && len(missing) == 0 {
		return Result{Equivalent: true}
	}

	r := Result{Extra: extra, Missing: missing}
	var parts []string
	if len(got) != len(want) {
		parts = append(parts, fmt.Sprintf("node count differs: actual %d, expected %d", len(got), len(want)))
	}
	if len(extra) > 0 {
		r.Label = extra[0]
		parts = append(parts, fmt.Sprintf("unexpected labels: %s", strings.Join(extra, ", ")))
	}
	if len(missing) > 0 {
		if r.Label == "" {
			r.Label = missing[0]
		}
		parts = append(parts, fmt.Sprintf("missing labels: %s", strings.Join(missing, ", ")))
	}
	r.Detail = strings.Join(parts, "; ")
	return r
}

func checkPresent(actual, expected *graph.Graph) (Result, bool) {
	switch {
	case actual == nil && expected == nil:
		return Result{Equivalent: true}, true
	case actual == nil:
		return Result{Detail: "actual graph is missing (empty payload)"}, true
	case expected == nil:
		return Result{Detail: "expected graph is missing"}, true
	}
	return Result{}, false
}

// multisetDiff returns the elements only in got and only in want, counting
// duplicates. Both inputs must be sorted.
func multisetDiff(got, want []string) (extra, missing []string) {
	i, j := 0, 0
	for i < len(got) && j < len(want) {
		switch {
		case got[i] == want[j]:
			i++
			j++
		case got[i] < want[j]:
			extra = append(extra, got[i])
			i++
		default:
			missing = append(missing, want[j])
			j++
		}
	}
	extra = append(extra, got[i:]...)
	missing = append(missing, want[j:]...)
	return extra, missing
}

func sorted(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}
