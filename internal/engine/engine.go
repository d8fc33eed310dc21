// Package engine holds the text-generation backends the service can call.
//
// Every backend satisfies Engine: a synchronous call that takes a prompt and
// decoding options and returns one or more candidate texts. Backends:
//
//   - llama: in-process llama.cpp via go-llama.cpp. Built with `-tags=llama`;
//     a CGO-free stub reports the dependency as unavailable otherwise.
//   - openai: any OpenAI-compatible /v1/completions server (llama-server,
//     vLLM, Ollama) through openai-go.
//   - tgi: Hugging Face text-generation-inference or the HF Inference API,
//     whose response is already a list of {generated_text}.
//   - mock: canned reply for development and tests.
package engine

import "context"

// Options are the decoding parameters for one generation call.
type Options struct {
	MaxNewTokens int
	Temperature  float64
	// Deterministic disables sampling (greedy decoding).
	Deterministic bool
	// EarlyStopping stops at the end-of-sequence token.
	EarlyStopping bool
}

// Candidate is one text produced by the engine.
type Candidate struct {
	GeneratedText string `json:"generated_text"`
}

// Engine is the generation collaborator.
type Engine interface {
	// Generate runs one blocking generation. Implementations should return
	// when ctx is done if the backend allows it.
	Generate(ctx context.Context, prompt string, opts Options) ([]Candidate, error)
	// Name identifies the backend in logs.
	Name() string
	// ConcurrentSafe reports whether independent Generate calls may overlap.
	ConcurrentSafe() bool
	// Close releases backend resources.
	Close() error
}
