package engine

import (
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendLlama  = "llama"
	BackendOpenAI = "openai"
	BackendTGI    = "tgi"
	BackendMock   = "mock"
)

// Config selects and parameterizes a backend. It is filled from the
// service configuration; zero values fall back to backend defaults.
type Config struct {
	Backend        string
	URL            string
	APIKey         string
	Model          string
	ModelPath      string
	LlamaCtx       int
	LlamaThreads   int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MockReply      string
	MockDelay      time.Duration
}

// New constructs the engine named by cfg.Backend. It is called once at
// startup; the result is shared by all requests.
func New(cfg Config) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendLlama:
		if !llamaBuilt {
			return nil, ErrUnavailable("llama support not built (missing 'llama' build tag)")
		}
		path, err := ResolveModelPath(cfg.ModelPath, cfg.Model)
		if err != nil {
			return nil, err
		}
		return NewLlama(path, cfg.LlamaCtx, cfg.LlamaThreads)
	case BackendOpenAI:
		if cfg.URL == "" {
			return nil, fmt.Errorf("engine %q requires engine_url", BackendOpenAI)
		}
		return NewOpenAI(cfg.URL, cfg.APIKey, cfg.Model, cfg.Timeout, newHTTPClient(cfg.ConnectTimeout)), nil
	case BackendTGI:
		if cfg.URL == "" {
			return nil, fmt.Errorf("engine %q requires engine_url", BackendTGI)
		}
		return NewTGI(cfg.URL, cfg.APIKey, cfg.Timeout, newHTTPClient(cfg.ConnectTimeout)), nil
	case BackendMock:
		return &MockEngine{Reply: cfg.MockReply, Delay: cfg.MockDelay}, nil
	default:
		return nil, fmt.Errorf("unknown engine backend: %q", cfg.Backend)
	}
}
