package engine

import (
	"context"
	"time"
)

// DefaultMockReply is what the mock engine answers when no reply is configured.
const DefaultMockReply = "Este es un texto formalizado de prueba."

// MockEngine returns a fixed reply after an optional delay.
type MockEngine struct {
	Reply string
	Delay time.Duration
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) ConcurrentSafe() bool { return true }

func (m *MockEngine) Close() error { return nil }

func (m *MockEngine) Generate(ctx context.Context, prompt string, opts Options) ([]Candidate, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	reply := m.Reply
	if reply == "" {
		reply = DefaultMockReply
	}
	return []Candidate{{GeneratedText: reply}}, nil
}
