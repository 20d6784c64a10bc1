package classifier

import (
	"context"
	"sync"
)

// MockResult is a canned result for the Mock client.
type MockResult struct {
	Verdict *Verdict
	Err     error
}

// Mock is a deterministic Client for testing.
// It returns canned results in FIFO order and records all phrases sent.
// Safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	results []MockResult
	Calls   []string
}

// NewMock creates a Mock with the given canned results.
func NewMock(results ...MockResult) *Mock {
	return &Mock{results: results}
}

// Classify returns the next canned result, or *ErrUnavailable when the
// queue is empty.
func (m *Mock) Classify(_ context.Context, text string) (*Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, text)

	if len(m.results) == 0 {
		return nil, &ErrUnavailable{Err: nil}
	}

	res := m.results[0]
	m.results = m.results[1:]

	if res.Err != nil {
		return nil, res.Err
	}
	return res.Verdict, nil
}

// AddResult appends a canned result to the queue.
func (m *Mock) AddResult(res MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
}

// CallCount returns the number of Classify calls made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
