// Package mock provides a scripted provider for tests and local development.
package mock

import (
	"context"
	"sync"

	"github.com/GoCodeAlone/todochat/provider"
)

const defaultResponse = "REPLY: I can help you add, list, complete, delete, or update tasks."

// MockProvider implements provider.Provider by cycling through scripted
// responses. It is safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	idx       int
	calls     [][]provider.Message
}

// New creates a MockProvider that cycles through the given responses.
func New(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewFailing creates a MockProvider whose every call returns err.
func NewFailing(err error) *MockProvider {
	return &MockProvider{err: err}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Chat returns the next scripted response, cycling through the queue.
func (m *MockProvider) Chat(ctx context.Context, messages []provider.Message, _ provider.Options) (*provider.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, messages)
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return &provider.Response{Content: defaultResponse}, nil
	}
	resp := m.responses[m.idx%len(m.responses)]
	m.idx++
	return &provider.Response{Content: resp}, nil
}

// Calls returns the number of Chat invocations so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastMessages returns the messages of the most recent Chat call.
func (m *MockProvider) LastMessages() []provider.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
