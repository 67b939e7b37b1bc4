package tts

import (
	"context"
	"sync"
)

// MockEngine is a scripted Engine for tests. GenerateFunc decides each
// call's outcome; calls are recorded in order.
type MockEngine struct {
	GenerateFunc func(ctx context.Context, text string) ([]byte, error)
	TraitsValue  Traits

	mu    sync.Mutex
	calls []string
}

func (m *MockEngine) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, text)
	}
	return []byte("audio:" + text), nil
}

func (m *MockEngine) Traits() Traits {
	if m.TraitsValue.OutputFormat == "" {
		return Traits{Name: "mock-tts", OutputFormat: "wav"}
	}
	return m.TraitsValue
}

// Calls returns the texts passed to GenerateAudio, in call order.
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
