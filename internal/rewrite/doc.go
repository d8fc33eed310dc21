// Package rewrite is the core of the service: it validates generation
// requests, wraps the input in the fixed instruction prompt, calls the engine
// through an admission gate and maps failures to typed errors.
//
//   - request.go: Request, ParseRequest and the validation rules.
//   - errors.go: ValidationError, EngineError, BusyError and helpers.
//   - prompt.go: the fixed instruction and decoding policy.
//   - gate.go: admission (engine serialization, optional queue bound).
//   - rewriter.go: Rewriter, the orchestration entry point.
//   - metrics.go: Prometheus generation metrics.
//
// Errors carry a StatusCode so the HTTP layer can map them without knowing
// their concrete types.
package rewrite
