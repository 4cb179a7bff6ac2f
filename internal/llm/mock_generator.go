package llm

import (
	"context"
	"sync"

	"specter/pkg/spectertypes"
)

// MockGenerator is a scripted TextGenerator used by tests and by --test-mode runs.
type MockGenerator struct {
	mu sync.Mutex

	// Reply returns the next response. When nil, Responses are replayed in order
	// and the last one repeats.
	Reply     func(req spectertypes.GenerateRequest) (string, error)
	Responses []string
	Err       error

	Requests []spectertypes.GenerateRequest
}

// NewMockGenerator returns a generator replaying responses.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{Responses: responses}
}

// ProviderName returns "mock".
func (m *MockGenerator) ProviderName() string {
	return "mock"
}

// Generate records the request and returns the scripted reply.
func (m *MockGenerator) Generate(ctx context.Context, req spectertypes.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	call := len(m.Requests)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Reply != nil {
		return m.Reply(req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if call > len(m.Responses) {
		call = len(m.Responses)
	}
	return m.Responses[call-1], nil
}

// Calls returns the number of recorded requests.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
