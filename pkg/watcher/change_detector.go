package watcher

import (
	"slices"

	"github.com/ritzau/gardener-conformance/pkg/runner"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// ChangeAnalysis describes what changed and which suites need to be re-run
type ChangeAnalysis struct {
	// Suites to re-run; nil means all of them
	Suites       []string
	ChangedFiles []string
}

// All reports whether every suite must be re-run
func (a *ChangeAnalysis) All() bool {
	return a.Suites == nil
}

// AnalyzeChanges determines which suites need to be re-run
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeAnalyzer:
		// A new analyzer binary can change any behaviour

	case ChangeTypeFixture:
		// Only the cases reading the edited tree are affected
		analysis.Suites = []string{suiteOf(event.Language), runner.SuiteDeterminism}
	}

	return analysis
}

// Merge combines the analyses of one debounced batch
func Merge(analyses ...*ChangeAnalysis) *ChangeAnalysis {
	merged := &ChangeAnalysis{}
	all := len(analyses) == 0
	var suites []string
	for _, a := range analyses {
		merged.ChangedFiles = append(merged.ChangedFiles, a.ChangedFiles...)
		if a.All() {
			all = true
			continue
		}
		for _, s := range a.Suites {
			if !slices.Contains(suites, s) {
				suites = append(suites, s)
			}
		}
	}
	if !all {
		merged.Suites = suites
	}
	return merged
}

func suiteOf(lang scenario.Language) string {
	switch lang {
	case scenario.LanguagePython:
		return runner.SuitePython
	case scenario.LanguageRuby:
		return runner.SuiteRuby
	default:
		return runner.SuiteC
	}
}
