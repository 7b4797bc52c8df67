package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/smartscan/internal/finding"
)

// Mock is a test double that returns canned results per path.
type Mock struct {
	Results map[string][]finding.RawFinding
	Errs    map[string]error
	// Delay, when set, is slept before answering. The sleep ignores ctx.
	Delay time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Analyze(_ context.Context, path string) ([]finding.RawFinding, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if err, ok := m.Errs[path]; ok {
		return nil, err
	}
	return m.Results[path], nil
}

// Calls returns the paths analyzed so far, in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
