package runner

import (
	"time"

	"github.com/ritzau/gardener-conformance/pkg/cycles"
	"github.com/ritzau/gardener-conformance/pkg/oracle"
)

// Status is the outcome of one case
type Status string

const (
	Passed  Status = "passed"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// CaseResult records one executed case
type CaseResult struct {
	Suite   string `json:"suite" yaml:"suite"`
	Name    string `json:"name" yaml:"name"`
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Runs counts analyzer invocations made by the case
	Runs int `json:"runs" yaml:"runs"`
	// Nodes is the size of the main graph the case looked at
	Nodes int `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	Cycles []cycles.Cycle    `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Diff   *oracle.GraphDiff `json:"diff,omitempty" yaml:"diff,omitempty"`
	Result *oracle.Result    `json:"result,omitempty" yaml:"result,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// ID is the unique name of the case within a report
func (c CaseResult) ID() string {
	return c.Suite + "/" + c.Name
}

// Report is the outcome of one suite run
type Report struct {
	RunID    string        `json:"runId" yaml:"runId"`
	Analyzer string        `json:"analyzer" yaml:"analyzer"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	Cases []CaseResult `json:"cases" yaml:"cases"`

	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// OK reports whether no case failed
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Case returns the case with the given ID
func (r *Report) Case(id string) (CaseResult, bool) {
	for _, c := range r.Cases {
		if c.ID() == id {
			return c, true
		}
	}
	return CaseResult{}, false
}

func (r *Report) add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	switch c.Status {
	case Passed:
		r.Passed++
	case Failed:
		r.Failed++
	case Skipped:
		r.Skipped++
	}
}
