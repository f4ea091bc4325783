package llm

import (
	"context"
	"sync"
)

// MockProvider is a test double that returns canned responses. When
// Responses is set, successive calls consume it in order and the last entry
// repeats; otherwise Response is returned every time.
type MockProvider struct {
	Response  string
	Responses []string
	Err       error

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, prompt string, _ Settings) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		i := m.calls - 1
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		return m.Responses[i], nil
	}
	return m.Response, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the prompts received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
