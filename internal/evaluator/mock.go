package evaluator

import (
	"context"
	"sync"
)

// MockResponse is a canned reply for MockClient.Next.
type MockResponse struct {
	Response *Response
	Err      error
}

// MockClient is a deterministic Client for testing.
// It returns canned responses in FIFO order and records all requests.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	mistakeFn func(MistakeNotice) error

	Calls    []Request
	Mistakes []MistakeNotice
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a MockClient with the given canned responses.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Next returns the next canned response or ErrUnavailable if the queue is
// empty.
func (m *MockClient) Next(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrUnavailable{}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Response == nil {
		return &Response{}, nil
	}
	return resp.Response, nil
}

// LogMistake records the notice and returns the error set by OnMistake.
func (m *MockClient) LogMistake(_ context.Context, notice MistakeNotice) error {
	m.mu.Lock()
	m.Mistakes = append(m.Mistakes, notice)
	fn := m.mistakeFn
	m.mu.Unlock()

	if fn != nil {
		return fn(notice)
	}
	return nil
}

// OnMistake sets a hook invoked for every mistake notification.
func (m *MockClient) OnMistake(fn func(MistakeNotice) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mistakeFn = fn
}

// AddResponse appends a canned response to the queue.
func (m *MockClient) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Next calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent Next request.
func (m *MockClient) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}

// MistakeCount returns the number of LogMistake calls made.
func (m *MockClient) MistakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Mistakes)
}
