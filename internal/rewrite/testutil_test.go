package rewrite

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"formalizer/internal/engine"
)

type engineCall struct {
	prompt string
	opts   engine.Options
}

// fakeEngine is a lightweight in-memory engine used for tests.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []engineCall
	cands    []engine.Candidate
	err      error
	panicMsg string
	safe     bool
	delay    time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func replying(text string) *fakeEngine {
	return &fakeEngine{cands: []engine.Candidate{{GeneratedText: text}}}
}

func (f *fakeEngine) Name() string         { return "fake" }
func (f *fakeEngine) ConcurrentSafe() bool { return f.safe }
func (f *fakeEngine) Close() error         { return nil }

func (f *fakeEngine) Generate(ctx context.Context, prompt string, opts engine.Options) ([]engine.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, engineCall{prompt: prompt, opts: opts})
	f.mu.Unlock()

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxInflight.Load()
		if n <= cur || f.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.cands, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) lastCall() engineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}
