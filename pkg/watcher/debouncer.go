package watcher

import (
	"context"
	"time"

	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// Debouncer batches rapid file system events to avoid excessive re-runs
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

type batchKey struct {
	typ  ChangeType
	lang scenario.Language
}

// run accumulates events until the input is quiet for quietPeriod or
// maxWait has passed since the first event of the batch
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet       <-chan time.Time
		deadline    <-chan time.Time
		order       []batchKey
		accumulated = make(map[batchKey][]string)
		eventCount  int
	)

	flush := func() {
		quiet, deadline = nil, nil
		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Analyzer changes first, they re-run everything
		for _, key := range order {
			if key.typ == ChangeTypeAnalyzer {
				d.emit(ctx, key, accumulated[key])
			}
		}
		for _, key := range order {
			if key.typ != ChangeTypeAnalyzer {
				d.emit(ctx, key, accumulated[key])
			}
		}

		order = nil
		accumulated = make(map[batchKey][]string)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			key := batchKey{typ: event.Type, lang: event.Language}
			if _, seen := accumulated[key]; !seen {
				order = append(order, key)
			}
			accumulated[key] = append(accumulated[key], event.Paths...)
			eventCount++

			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

func (d *Debouncer) emit(ctx context.Context, key batchKey, paths []string) {
	select {
	case d.output <- ChangeEvent{Type: key.typ, Language: key.lang, Paths: paths, Timestamp: time.Now()}:
	case <-ctx.Done():
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
