package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// MessagesFunc is called when Messages is invoked.
	MessagesFunc func(ctx context.Context, req *Request) (*Response, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method  string
	Time    time.Time
	Request *Request
}

// NewMock creates a mock that answers every request with "Mock response".
func NewMock() *Mock {
	return &Mock{
		MessagesFunc: func(ctx context.Context, req *Request) (*Response, error) {
			return TextResponse("Mock response"), nil
		},
	}
}

// Messages calls MessagesFunc and records the call.
func (m *Mock) Messages(ctx context.Context, req *Request) (*Response, error) {
	m.record("Messages", req)
	if m.MessagesFunc != nil {
		return m.MessagesFunc(ctx, req)
	}
	return &Response{Role: RoleAssistant}, nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of calls to a method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Mock) record(method string, req *Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:  method,
		Time:    time.Now(),
		Request: req,
	})
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*Mock)(nil)
)
