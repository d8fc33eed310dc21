package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTGI_ListResponse(t *testing.T) {
	var got tgiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hf_x" {
			t.Errorf("authorization=%q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text":"Hola, ¿cómo está usted?"}]`))
	}))
	defer ts.Close()

	e := NewTGI(ts.URL, "hf_x", time.Second, nil)
	out, err := e.Generate(context.Background(), "prompt text", Options{MaxNewTokens: 150, Temperature: 0.5, Deterministic: true, EarlyStopping: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 1 || out[0].GeneratedText != "Hola, ¿cómo está usted?" {
		t.Fatalf("unexpected candidates: %+v", out)
	}
	if got.Inputs != "prompt text" || got.Parameters.MaxNewTokens != 150 || got.Parameters.DoSample || !got.Parameters.EarlyStopping {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Parameters.Temperature == nil || *got.Parameters.Temperature != 0.5 {
		t.Fatalf("temperature not forwarded: %+v", got.Parameters.Temperature)
	}
}

func TestTGI_ObjectResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generated_text":"texto"}`))
	}))
	defer ts.Close()

	out, err := NewTGI(ts.URL, "", 0, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 1 || out[0].GeneratedText != "texto" {
		t.Fatalf("unexpected candidates: %+v", out)
	}
}

func TestTGI_ZeroTemperatureOmitted(t *testing.T) {
	var raw map[string]map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	out, err := NewTGI(ts.URL, "", 0, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no candidates, got %+v", out)
	}
	if _, ok := raw["parameters"]["temperature"]; ok {
		t.Fatalf("temperature should be omitted: %v", raw)
	}
}

func TestTGI_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model google/flan-t5-base is currently loading"}`))
	}))
	defer ts.Close()

	_, err := NewTGI(ts.URL, "", 0, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusServiceUnavailable || !strings.Contains(se.Error(), "currently loading") {
		t.Fatalf("unexpected error: %v", se)
	}
}

func TestTGI_HTTPErrorTruncatedOnRuneBoundary(t *testing.T) {
	// 4095 ASCII bytes put the 2-byte 'ñ' across the cut.
	long := strings.Repeat("a", maxErrorBody-1) + strings.Repeat("ñ", 10)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(long))
	}))
	defer ts.Close()

	_, err := NewTGI(ts.URL, "", 0, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if len(se.Body) > maxErrorBody {
		t.Fatalf("body len=%d exceeds %d", len(se.Body), maxErrorBody)
	}
	if !utf8.ValidString(se.Body) || !utf8.ValidString(se.Error()) {
		t.Fatalf("truncated body is not valid UTF-8")
	}
	if se.Body != strings.Repeat("a", maxErrorBody-1) {
		t.Fatalf("unexpected cut: len=%d", len(se.Body))
	}
}

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hola", 10, "hola"},
		{"hola", 2, "ho"},
		{"añb", 2, "a"},
		{"añb", 3, "añ"},
		{"ñ", 1, ""},
	}
	for _, c := range cases {
		if got := truncateUTF8(c.in, c.n); got != c.want {
			t.Fatalf("truncateUTF8(%q, %d)=%q want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestTGI_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	if _, err := NewTGI(ts.URL, "", 0, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTGI_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewTGI(ts.URL, "", 50*time.Millisecond, nil).Generate(context.Background(), "p", Options{MaxNewTokens: 8})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
