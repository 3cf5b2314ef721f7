package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	// ChangeTypeAnalyzer is a rebuilt or replaced analyzer binary
	ChangeTypeAnalyzer ChangeType = iota
	// ChangeTypeFixture is an edit inside a fixture tree
	ChangeTypeFixture
)

func (t ChangeType) String() string {
	if t == ChangeTypeAnalyzer {
		return "analyzer"
	}
	return "fixture"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type ChangeType
	// Language of the fixture tree, unset for analyzer changes
	Language  scenario.Language
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches the analyzer binary and the fixture trees
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	analyzer string
	trees    map[scenario.Language]string
	events   chan ChangeEvent
}

// NewFileWatcher creates a watcher for the analyzer at path and the given
// fixture trees
func NewFileWatcher(analyzer string, trees map[scenario.Language]string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs := make(map[scenario.Language]string, len(trees))
	for lang, dir := range trees {
		if a, err := filepath.Abs(dir); err == nil {
			dir = a
		}
		abs[lang] = dir
	}
	if a, err := filepath.Abs(analyzer); err == nil && analyzer != "" {
		analyzer = a
	}

	return &FileWatcher{
		watcher:  watcher,
		analyzer: analyzer,
		trees:    abs,
		events:   make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	// Binaries are usually replaced rather than written in place, so the
	// directory is watched and events are filtered by name
	if fw.analyzer != "" {
		dir := filepath.Dir(fw.analyzer)
		if err := fw.watcher.Add(dir); err != nil {
			logging.Warn("failed to watch analyzer directory", "path", dir, "error", err)
		} else {
			logging.Info("monitoring analyzer", "path", fw.analyzer)
		}
	}

	for lang, dir := range fw.trees {
		count, err := fw.watchTree(dir)
		if err != nil {
			logging.Warn("failed to watch fixture tree", "path", dir, "error", err)
			continue
		}
		logging.Info("monitoring fixture tree", "language", string(lang), "path", dir, "dirs", count)
	}

	go fw.processEvents(ctx)
	return nil
}

// watchTree adds every directory below root
func (fw *FileWatcher) watchTree(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return count, nil
}

// classify maps a file system event to the change it represents
func (fw *FileWatcher) classify(name string) (ChangeEvent, bool) {
	if fw.analyzer != "" && name == fw.analyzer {
		return ChangeEvent{Type: ChangeTypeAnalyzer}, true
	}
	for lang, dir := range fw.trees {
		if name == dir || strings.HasPrefix(name, dir+string(filepath.Separator)) {
			return ChangeEvent{Type: ChangeTypeFixture, Language: lang}, true
		}
	}
	return ChangeEvent{}, false
}

// processEvents forwards relevant file system events
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			change, ok := fw.classify(event.Name)
			if !ok {
				continue
			}

			// New directories inside a tree need their own watch
			if change.Type == ChangeTypeFixture && event.Op.Has(fsnotify.Create) {
				if n, err := fw.watchTree(event.Name); err == nil && n > 0 {
					logging.Debug("watching new directory", "path", event.Name, "dirs", n)
				}
			}

			change.Paths = []string{event.Name}
			change.Timestamp = time.Now()
			logging.Trace("file change", "type", change.Type.String(), "path", event.Name, "op", event.Op.String())

			select {
			case fw.events <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
