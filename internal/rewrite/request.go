package rewrite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request is a validated generation request. Inputs is already trimmed and
// the optional parameters are resolved to their defaults.
type Request struct {
	Inputs       string
	MaxNewTokens int
	Temperature  float64
}

// Result is the outcome of a successful generation.
type Result struct {
	GeneratedText string
}

var errMissingInputs = &ValidationError{Field: "inputs", Msg: "Field inputs required in JSON body"}

// ParseRequest validates a raw POST /generate body. Checks run in order:
// inputs present, inputs non-blank, optional fields coercible, bounds.
// Defaults are applied only when every check passes.
func ParseRequest(body []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &fields) != nil || fields == nil {
		return Request{}, errMissingInputs
	}
	raw, ok := fields["inputs"]
	if !ok || isNull(raw) {
		return Request{}, errMissingInputs
	}
	var inputs string
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return Request{}, &ValidationError{Field: "inputs", Msg: "Field inputs must be a string"}
	}
	req := Request{
		Inputs:       strings.TrimSpace(inputs),
		MaxNewTokens: DefaultMaxNewTokens,
		Temperature:  DefaultTemperature,
	}
	if req.Inputs == "" {
		return Request{}, &ValidationError{Field: "inputs", Msg: "Input text is empty"}
	}

	var tokens, temp *float64
	if raw, ok := fields["max_new_tokens"]; ok && !isNull(raw) {
		f, ok := coerceNumber(raw)
		if !ok || f != math.Trunc(f) {
			return Request{}, &ValidationError{Field: "max_new_tokens", Msg: "Field max_new_tokens must be an integer"}
		}
		tokens = &f
	}
	if raw, ok := fields["temperature"]; ok && !isNull(raw) {
		f, ok := coerceNumber(raw)
		if !ok {
			return Request{}, &ValidationError{Field: "temperature", Msg: "Field temperature must be a number"}
		}
		temp = &f
	}

	// Bounds only after every field has the right type.
	if tokens != nil {
		if *tokens < MinMaxNewTokens || *tokens > MaxMaxNewTokens {
			return Request{}, boundsError("max_new_tokens", MinMaxNewTokens, MaxMaxNewTokens)
		}
		req.MaxNewTokens = int(*tokens)
	}
	if temp != nil {
		if *temp < MinTemperature || *temp > MaxTemperature {
			return Request{}, boundsError("temperature", MinTemperature, MaxTemperature)
		}
		req.Temperature = *temp
	}
	return req, nil
}

// Validate re-checks a Request built without ParseRequest.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Inputs) == "" {
		return &ValidationError{Field: "inputs", Msg: "Input text is empty"}
	}
	if r.MaxNewTokens < MinMaxNewTokens || r.MaxNewTokens > MaxMaxNewTokens {
		return boundsError("max_new_tokens", MinMaxNewTokens, MaxMaxNewTokens)
	}
	if math.IsNaN(r.Temperature) || r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return boundsError("temperature", MinTemperature, MaxTemperature)
	}
	return nil
}

func boundsError(field string, lo, hi float64) *ValidationError {
	return &ValidationError{
		Field: field,
		Msg:   fmt.Sprintf("Field %s must be between %g and %g", field, lo, hi),
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// coerceNumber accepts a JSON number or a string holding a finite number.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
