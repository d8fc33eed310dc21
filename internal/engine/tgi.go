package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// tgiEngine posts to a Hugging Face text-generation-inference /generate
// endpoint or a hosted Inference API model URL.
type tgiEngine struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

type tgiParameters struct {
	MaxNewTokens int      `json:"max_new_tokens"`
	Temperature  *float64 `json:"temperature,omitempty"`
	DoSample     bool     `json:"do_sample"`
	// Only the hosted Inference API honors early_stopping; TGI ignores it.
	EarlyStopping bool `json:"early_stopping"`
}

type tgiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tgiParameters `json:"parameters"`
}

type tgiError struct {
	Error string `json:"error"`
}

// NewTGI constructs an engine posting to url. A nil httpClient selects the
// package default transport.
func NewTGI(url, apiKey string, timeout time.Duration, httpClient *http.Client) Engine {
	if httpClient == nil {
		httpClient = newHTTPClient(0)
	}
	return &tgiEngine{url: url, apiKey: apiKey, timeout: timeout, httpClient: httpClient}
}

func (e *tgiEngine) Name() string { return "tgi" }

func (e *tgiEngine) ConcurrentSafe() bool { return true }

func (e *tgiEngine) Close() error { return nil }

func (e *tgiEngine) Generate(ctx context.Context, prompt string, opts Options) ([]Candidate, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	payload := tgiRequest{
		Inputs: prompt,
		Parameters: tgiParameters{
			MaxNewTokens:  opts.MaxNewTokens,
			DoSample:      !opts.Deterministic,
			EarlyStopping: opts.EarlyStopping,
		},
	}
	// TGI rejects a non-positive temperature.
	if opts.Temperature > 0 {
		t := opts.Temperature
		payload.Parameters.Temperature = &t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tgi: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tgi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tgi: request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tgi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(bytes.TrimSpace(b))
		var te tgiError
		if json.Unmarshal(b, &te) == nil && te.Error != "" {
			msg = te.Error
		}
		msg = truncateUTF8(msg, maxErrorBody)
		return nil, &StatusError{Backend: "tgi", Code: resp.StatusCode, Body: msg}
	}
	return decodeCandidates(b)
}

// maxErrorBody bounds how much of an upstream error body is surfaced.
const maxErrorBody = 4096

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// decodeCandidates accepts both the Inference API list shape and the single
// object TGI's /generate returns.
func decodeCandidates(b []byte) ([]Candidate, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("tgi: empty response body")
	}
	if b[0] == '[' {
		var list []Candidate
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("tgi: decode response: %w", err)
		}
		return list, nil
	}
	var one Candidate
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, fmt.Errorf("tgi: decode response: %w", err)
	}
	return []Candidate{one}, nil
}
