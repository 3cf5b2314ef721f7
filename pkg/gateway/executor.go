package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Output holds the captured streams of one analyzer run
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Executor runs the analyzer with the given arguments
type Executor interface {
	Run(ctx context.Context, args []string) (Output, error)
}

// DefaultExecutor is the default implementation of Executor that runs the actual binary
type DefaultExecutor struct {
	Path string
}

// NewExecutor creates an executor for the analyzer binary at path
func NewExecutor(path string) Executor {
	return &DefaultExecutor{Path: path}
}

// Run executes the analyzer and waits for it to finish.
// A non-zero exit status is not an error: callers assert on the captured
// diagnostics instead. Only failures to start or wait for the process are,
// and a run killed because ctx ended reports ctx.Err().
func (e *DefaultExecutor) Run(ctx context.Context, args []string) (Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children left behind by a killed analyzer must not hold the pipes open
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return out, fmt.Errorf("running %s interrupted: %w", e.Path, ctxErr)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return out, fmt.Errorf("running %s failed: %w", e.Path, err)
	}
	return out, nil
}
