package rewrite

import (
	"strings"
	"testing"
)

func TestParseRequest_Defaults(t *testing.T) {
	req, err := ParseRequest([]byte(`{"inputs":"  hola como estas  "}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Inputs != "hola como estas" {
		t.Fatalf("inputs not trimmed: %q", req.Inputs)
	}
	if req.MaxNewTokens != 200 || req.Temperature != 0.3 {
		t.Fatalf("defaults not applied: %+v", req)
	}
}

func TestParseRequest_PassThrough(t *testing.T) {
	req, err := ParseRequest([]byte(`{"inputs":"test text","max_new_tokens":150,"temperature":0.5}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.MaxNewTokens != 150 || req.Temperature != 0.5 {
		t.Fatalf("params not passed through: %+v", req)
	}
}

func TestParseRequest_Coercion(t *testing.T) {
	cases := []struct {
		body      string
		maxTokens int
		temp      float64
	}{
		{`{"inputs":"x","max_new_tokens":"150","temperature":"0.5"}`, 150, 0.5},
		{`{"inputs":"x","max_new_tokens":150.0}`, 150, 0.3},
		{`{"inputs":"x","max_new_tokens":null,"temperature":null}`, 200, 0.3},
		{`{"inputs":"x","temperature":0}`, 200, 0},
		{`{"inputs":"x","temperature":2,"max_new_tokens":2048}`, 2048, 2},
		{`{"inputs":"x","max_new_tokens":1,"extra":true}`, 1, 0.3},
	}
	for _, c := range cases {
		req, err := ParseRequest([]byte(c.body))
		if err != nil {
			t.Fatalf("%s: %v", c.body, err)
		}
		if req.MaxNewTokens != c.maxTokens || req.Temperature != c.temp {
			t.Fatalf("%s: got %+v", c.body, req)
		}
	}
}

func TestParseRequest_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{"no body", ``, "inputs", "inputs"},
		{"whitespace body", "  \n", "inputs", "inputs"},
		{"invalid json", `{"inputs":`, "inputs", "inputs"},
		{"json null", `null`, "inputs", "inputs"},
		{"array", `["hola"]`, "inputs", "inputs"},
		{"string", `"hola"`, "inputs", "inputs"},
		{"wrong field", `{"wrong_field":"x"}`, "inputs", "inputs required"},
		{"null inputs", `{"inputs":null}`, "inputs", "inputs"},
		{"non-string inputs", `{"inputs":42}`, "inputs", "inputs"},
		{"empty inputs", `{"inputs":""}`, "inputs", "empty"},
		{"blank inputs", `{"inputs":"   \t\n"}`, "inputs", "empty"},
		{"tokens not a number", `{"inputs":"x","max_new_tokens":"many"}`, "max_new_tokens", "integer"},
		{"tokens fractional", `{"inputs":"x","max_new_tokens":150.5}`, "max_new_tokens", "integer"},
		{"tokens bool", `{"inputs":"x","max_new_tokens":true}`, "max_new_tokens", "integer"},
		{"tokens zero", `{"inputs":"x","max_new_tokens":0}`, "max_new_tokens", "between"},
		{"tokens negative", `{"inputs":"x","max_new_tokens":-5}`, "max_new_tokens", "between"},
		{"tokens too many", `{"inputs":"x","max_new_tokens":4096}`, "max_new_tokens", "between"},
		{"temperature not a number", `{"inputs":"x","temperature":"hot"}`, "temperature", "number"},
		{"temperature object", `{"inputs":"x","temperature":{}}`, "temperature", "number"},
		{"temperature nan string", `{"inputs":"x","temperature":"NaN"}`, "temperature", "number"},
		{"temperature negative", `{"inputs":"x","temperature":-0.1}`, "temperature", "between"},
		{"temperature too high", `{"inputs":"x","temperature":2.5}`, "temperature", "between"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(c.body))
			if err == nil {
				t.Fatalf("expected rejection for %s", c.body)
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != c.field {
				t.Fatalf("field=%q want %q", ve.Field, c.field)
			}
			if !strings.Contains(strings.ToLower(ve.Error()), c.want) {
				t.Fatalf("message %q does not contain %q", ve.Error(), c.want)
			}
		})
	}
}

func TestParseRequest_PriorityOrder(t *testing.T) {
	// Emptiness is reported before malformed optional fields.
	_, err := ParseRequest([]byte(`{"inputs":"  ","max_new_tokens":"bad"}`))
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty error first, got %v", err)
	}
	// Missing inputs is reported before everything else.
	_, err = ParseRequest([]byte(`{"max_new_tokens":"bad"}`))
	if err == nil || !strings.Contains(err.Error(), "inputs") {
		t.Fatalf("expected inputs error first, got %v", err)
	}
	// Type errors on any optional field come before range errors.
	_, err = ParseRequest([]byte(`{"inputs":"x","max_new_tokens":0,"temperature":"hot"}`))
	if err == nil || err.Error() != "Field temperature must be a number" {
		t.Fatalf("expected temperature type error first, got %v", err)
	}
	_, err = ParseRequest([]byte(`{"inputs":"x","max_new_tokens":"many","temperature":5}`))
	if err == nil || err.Error() != "Field max_new_tokens must be an integer" {
		t.Fatalf("expected max_new_tokens type error first, got %v", err)
	}
}

func TestRequestValidate(t *testing.T) {
	ok := Request{Inputs: "x", MaxNewTokens: 200, Temperature: 0.3}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	bad := []Request{
		{Inputs: " ", MaxNewTokens: 200, Temperature: 0.3},
		{Inputs: "x", MaxNewTokens: 0, Temperature: 0.3},
		{Inputs: "x", MaxNewTokens: 200, Temperature: 3},
	}
	for _, r := range bad {
		if err := r.Validate(); !IsValidation(err) {
			t.Fatalf("%+v: expected validation error, got %v", r, err)
		}
	}
}
