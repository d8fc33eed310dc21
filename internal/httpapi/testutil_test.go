package httpapi

import (
	"context"
	"net/http"
	"sync"

	"formalizer/internal/engine"
	"formalizer/internal/rewrite"
)

// fakeEngine records the options of every call.
type fakeEngine struct {
	mu    sync.Mutex
	calls []engine.Options
	reply string
	err   error
}

func (f *fakeEngine) Name() string         { return "fake" }
func (f *fakeEngine) ConcurrentSafe() bool { return true }
func (f *fakeEngine) Close() error         { return nil }

func (f *fakeEngine) Generate(ctx context.Context, prompt string, opts engine.Options) ([]engine.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []engine.Candidate{{GeneratedText: f.reply}}, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) lastCall() engine.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// stubService returns a fixed result or error without an engine.
type stubService struct {
	res    rewrite.Result
	err    error
	gotCtx context.Context
}

func (s *stubService) Rewrite(ctx context.Context, req rewrite.Request) (rewrite.Result, error) {
	s.gotCtx = ctx
	return s.res, s.err
}

func newTestMux(fe *fakeEngine) http.Handler {
	return NewMux(rewrite.New(fe, rewrite.Config{}), "google/flan-t5-base")
}
