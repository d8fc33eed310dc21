package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// openAIEngine talks to an OpenAI-compatible /v1/completions endpoint.
type openAIEngine struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI constructs an engine for baseURL (e.g. http://localhost:8080/v1/).
// A nil httpClient selects the package default transport.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration, httpClient *http.Client) Engine {
	if httpClient == nil {
		httpClient = newHTTPClient(0)
	}
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &openAIEngine{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (e *openAIEngine) Name() string { return "openai" }

func (e *openAIEngine) ConcurrentSafe() bool { return true }

func (e *openAIEngine) Close() error { return nil }

func (e *openAIEngine) Generate(ctx context.Context, prompt string, opts Options) ([]Candidate, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	temperature := opts.Temperature
	params := openai.CompletionNewParams{
		Model:     openai.CompletionNewParamsModel(e.model),
		Prompt:    openai.CompletionNewParamsPromptUnion{OfString: param.NewOpt(prompt)},
		MaxTokens: param.NewOpt(int64(opts.MaxNewTokens)),
	}
	if opts.Deterministic {
		// Greedy decoding: servers treat temperature 0 as argmax.
		temperature = 0
		params.Seed = param.NewOpt[int64](0)
	}
	params.Temperature = param.NewOpt(temperature)

	resp, err := e.client.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("openai: completion request: %w", err)
	}
	out := make([]Candidate, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		out = append(out, Candidate{GeneratedText: c.Text})
	}
	return out, nil
}
