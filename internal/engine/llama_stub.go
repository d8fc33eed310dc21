//go:build !llama

package engine

// This file provides a no-CGO stub for the llama engine. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real engine lives in llama.go (tagged 'llama').

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = false

// NewLlama fails fast: llama runtime not available in this build.
func NewLlama(modelPath string, ctxSize, threads int) (Engine, error) {
	return nil, ErrUnavailable("llama support not built (missing 'llama' build tag)")
}
