// Package testutil provides hand-written mocks for the pipeline
// interfaces.
package testutil

import (
	"context"
	"fmt"
	"sync"

	gigalabel "github.com/gigatools/gigalabel"
)

// MockEmbedder is a mock implementation of Embedder for testing.
type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu        sync.Mutex
	CallCount int
	Calls     []string
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.Calls = append(m.Calls, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	// Default: a fixed unit-length vector so every pair scores 1.0.
	return []float32{1, 0, 0}, nil
}

// CallsFor returns how many times text was embedded.
func (m *MockEmbedder) CallsFor(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, call := range m.Calls {
		if call == text {
			n++
		}
	}
	return n
}

// MockCompleter is a mock implementation of ChatCompleter for testing.
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, req gigalabel.CompletionRequest) (*gigalabel.CompletionResult, error)

	mu        sync.Mutex
	CallCount int
	LastReq   gigalabel.CompletionRequest
}

func (m *MockCompleter) Complete(ctx context.Context, req gigalabel.CompletionRequest) (*gigalabel.CompletionResult, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastReq = req
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &gigalabel.CompletionResult{
		Text:  "mock completion",
		Usage: gigalabel.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
		Model: "mock-model",
	}, nil
}

// MockLabelStore is a mock implementation of LabelStore for testing.
// With no Func overrides it behaves like the in-memory store.
type MockLabelStore struct {
	GetFunc func(ctx context.Context, label string) ([]float32, bool, error)
	PutFunc func(ctx context.Context, label string, vector []float32) error

	mu       sync.Mutex
	GetCount int
	PutCount int
	Storage  map[string][]float32
}

func NewMockLabelStore() *MockLabelStore {
	return &MockLabelStore{Storage: make(map[string][]float32)}
}

func (m *MockLabelStore) Get(ctx context.Context, label string) ([]float32, bool, error) {
	m.mu.Lock()
	m.GetCount++
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, label)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	vector, ok := m.Storage[label]
	return vector, ok, nil
}

func (m *MockLabelStore) Put(ctx context.Context, label string, vector []float32) error {
	m.mu.Lock()
	m.PutCount++
	m.mu.Unlock()

	if m.PutFunc != nil {
		return m.PutFunc(ctx, label, vector)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Storage[label] = vector
	return nil
}

// CaptureLogger records log lines so tests can assert on reported
// omissions and failures.
type CaptureLogger struct {
	mu     sync.Mutex
	Debugs []string
	Infos  []string
	Warns  []string
	Errors []string
}

func (l *CaptureLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, fmt.Sprintf(format, args...))
}

func (l *CaptureLogger) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, fmt.Sprintf(format, args...))
}

func (l *CaptureLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, fmt.Sprintf(format, args...))
}

func (l *CaptureLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, fmt.Sprintf(format, args...))
}

// ErrorCount returns the number of recorded error lines.
func (l *CaptureLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}
