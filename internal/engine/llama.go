//go:build llama

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

const defaultLlamaCtx = 2048

// llamaEngine owns one loaded model. A llama context is not safe for
// concurrent Predict calls, so ConcurrentSafe reports false.
type llamaEngine struct {
	model   *llama.LLama
	path    string
	threads int
}

// NewLlama loads the GGUF model at modelPath into the process.
func NewLlama(modelPath string, ctxSize, threads int) (Engine, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if ctxSize <= 0 {
		ctxSize = defaultLlamaCtx
	}
	m, err := llama.New(modelPath, llama.SetContext(ctxSize))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	return &llamaEngine{model: m, path: modelPath, threads: threads}, nil
}

func (e *llamaEngine) Name() string { return "llama" }

func (e *llamaEngine) ConcurrentSafe() bool { return false }

func (e *llamaEngine) Generate(ctx context.Context, prompt string, opts Options) ([]Candidate, error) {
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Returning false from the callback stops prediction.
	e.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := e.model.Predict(prompt, predictOptions(opts, e.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return []Candidate{{GeneratedText: text}}, nil
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

// predictOptions converts Options into go-llama.cpp predict options.
func predictOptions(opts Options, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, opts.MaxNewTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTemperature(float32(opts.Temperature)),
	}
	if opts.Deterministic {
		// top-k 1 is greedy decoding whatever the temperature.
		po = append(po, llama.SetTopK(1))
	}
	if !opts.EarlyStopping {
		po = append(po, llama.IgnoreEOS)
	}
	return po
}
