package gateway

import (
	"context"
	"sync"
)

// MockExecutor is a mock implementation of Executor for testing.
// It replays Outputs in order, repeating the last one, and records the
// argument vectors it was called with.
type MockExecutor struct {
	Outputs   []Output
	MockError error

	mu    sync.Mutex
	Calls [][]string
}

func (m *MockExecutor) Run(ctx context.Context, args []string) (Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]string(nil), args...))
	if m.MockError != nil || len(m.Outputs) == 0 {
		return Output{}, m.MockError
	}

	i := len(m.Calls) - 1
	if i >= len(m.Outputs) {
		i = len(m.Outputs) - 1
	}
	return m.Outputs[i], nil
}
