package rewrite

import (
	"errors"
	"net/http"
)

// ValidationError is a client-caused rejection. The engine is never invoked
// when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// StatusCode maps validation failures to 400.
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// EngineError wraps any fault from the generation engine, including empty
// output. Its message is the engine's, verbatim.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string { return e.Err.Error() }

func (e *EngineError) Unwrap() error { return e.Err }

// StatusCode maps engine failures to 500.
func (e *EngineError) StatusCode() int { return http.StatusInternalServerError }

// BusyError signals that the admission gate rejected the request.
type BusyError struct {
	Reason string
}

func (e *BusyError) Error() string { return "too busy: " + e.Reason }

// StatusCode maps backpressure to 429.
func (e *BusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEngine reports whether err is an EngineError.
func IsEngine(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// IsBusy reports whether err indicates backpressure.
func IsBusy(err error) bool {
	var be *BusyError
	return errors.As(err, &be)
}

var (
	errNoCandidates = errors.New("engine returned no candidates")
	errEmptyOutput  = errors.New("engine returned empty text")
)
