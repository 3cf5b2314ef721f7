package main

import (
	"context"
	"slices"

	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/watcher"
)

// watch re-runs the affected suites after each debounced batch of changes
func (h *harness) watch(ctx context.Context, rerun func(suites []string)) error {
	fw, err := watcher.NewFileWatcher(h.analyzer, h.trees)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), settle, maxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		// Drain whatever else the same flush produced
		batch := []*watcher.ChangeAnalysis{watcher.AnalyzeChanges(event)}
	drain:
		for {
			select {
			case more, ok := <-debouncer.Output():
				if !ok {
					break drain
				}
				batch = append(batch, watcher.AnalyzeChanges(more))
			default:
				break drain
			}
		}

		changes := watcher.Merge(batch...)
		suites, ok := h.restrict(changes)
		if !ok {
			logging.Debug("changes affect no selected suite", "files", len(changes.ChangedFiles))
			continue
		}

		logging.Info("changes detected, re-running", "files", len(changes.ChangedFiles), "suites", suites)
		rerun(suites)
	}
	return nil
}

// restrict intersects the suites a change affects with the configured ones
func (h *harness) restrict(changes *watcher.ChangeAnalysis) ([]string, bool) {
	if changes.All() {
		return h.cfg.Suites, true
	}
	if len(h.cfg.Suites) == 0 {
		return changes.Suites, true
	}

	var suites []string
	for _, s := range changes.Suites {
		if slices.Contains(h.cfg.Suites, s) {
			suites = append(suites, s)
		}
	}
	return suites, len(suites) > 0
}
