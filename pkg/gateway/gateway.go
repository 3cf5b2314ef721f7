package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ritzau/gardener-conformance/pkg/formats"
	"github.com/ritzau/gardener-conformance/pkg/graph"
	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// Invocation is the observable result of running one scenario
type Invocation struct {
	Scenario scenario.Scenario
	Args     []string

	// Graph is nil when the analyzer produced no payload
	Graph *graph.Graph

	// Payload is the serialized graph, read from the output file when the
	// scenario names one and from stdout otherwise
	Payload []byte
	Stdout  []byte
	Stderr  []byte

	Duration time.Duration
}

// Gateway runs scenarios against the analyzer under test
type Gateway struct {
	exec Executor
}

func New(exec Executor) *Gateway {
	return &Gateway{exec: exec}
}

// Run executes the scenario and captures the streams without decoding anything
func (g *Gateway) Run(ctx context.Context, sc scenario.Scenario) (*Invocation, error) {
	args := sc.Args()
	logging.TraceContext(ctx, "invoking analyzer", "scenario", sc.Name, "args", strings.Join(args, " "))

	start := time.Now()
	out, err := g.exec.Run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	inv := &Invocation{
		Scenario: sc,
		Args:     args,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: time.Since(start),
	}
	logging.DebugContext(ctx, "analyzer finished",
		"scenario", sc.Name,
		"stdoutBytes", len(out.Stdout),
		"stderrBytes", len(out.Stderr),
		"durationMs", inv.Duration.Milliseconds(),
	)
	return inv, nil
}

// Invoke runs the scenario and decodes the produced graph in the scenario's format
func (g *Gateway) Invoke(ctx context.Context, sc scenario.Scenario) (*Invocation, error) {
	inv, err := g.Run(ctx, sc)
	if err != nil {
		return nil, err
	}

	inv.Payload = inv.Stdout
	if sc.Output != "" {
		inv.Payload, err = os.ReadFile(sc.Output)
		if errors.Is(err, fs.ErrNotExist) {
			inv.Payload = nil
		} else if err != nil {
			return nil, fmt.Errorf("scenario %q: reading output file: %w", sc.Name, err)
		}
	}

	if len(bytes.TrimSpace(inv.Payload)) == 0 {
		logging.DebugContext(ctx, "analyzer produced no graph", "scenario", sc.Name)
		return inv, nil
	}

	inv.Graph, err = Decode(sc.Format, inv.Payload)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return inv, nil
}

// Decode parses an analyzer payload in the given format
func Decode(f scenario.Format, payload []byte) (*graph.Graph, error) {
	switch f.Decodes() {
	case scenario.FormatDOT:
		return formats.DecodeDOT(payload)
	case scenario.FormatXML:
		return decodeGraphMLPayload(payload)
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
}

// decodeGraphMLPayload round-trips the payload through a temporary file,
// the way the GraphML reader is fed from disk everywhere else
func decodeGraphMLPayload(payload []byte) (*graph.Graph, error) {
	f, err := os.CreateTemp("", "gardener-*.graphml")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(payload); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	return formats.ReadGraphMLFile(f.Name())
}
