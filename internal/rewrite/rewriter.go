package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"formalizer/internal/engine"
)

// Config tunes admission and timeouts. Zero values keep the defaults: one
// engine call at a time, unbounded waiting, no timeout.
type Config struct {
	// MaxConcurrency applies only to engines reporting ConcurrentSafe.
	MaxConcurrency int
	// MaxQueueDepth bounds waiting plus in-flight requests (0 = unbounded).
	MaxQueueDepth int
	// MaxWait bounds the wait for an engine slot (0 = wait for the request context).
	MaxWait time.Duration
	// Timeout bounds the whole generation, admission included.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Rewriter orchestrates one engine call per request.
type Rewriter struct {
	engine  engine.Engine
	gate    *gate
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a Rewriter around a shared engine.
func New(e engine.Engine, cfg Config) *Rewriter {
	slots := 1
	if e.ConcurrentSafe() && cfg.MaxConcurrency > 1 {
		slots = cfg.MaxConcurrency
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Rewriter{
		engine:  e,
		gate:    newGate(slots, cfg.MaxQueueDepth, cfg.MaxWait),
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "rewrite").Str("engine", e.Name()).Logger(),
	}
}

// EngineName reports which backend serves requests.
func (rw *Rewriter) EngineName() string { return rw.engine.Name() }

// Rewrite validates req, calls the engine once and returns the trimmed first
// candidate. Failures are *ValidationError, *BusyError or *EngineError.
func (rw *Rewriter) Rewrite(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() { observe(err, time.Since(start)) }()

	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if rw.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rw.timeout)
		defer cancel()
	}
	in := excerpt(req.Inputs, excerptLen)

	release, err := rw.gate.acquire(ctx)
	if err != nil {
		if IsBusy(err) {
			rw.log.Warn().Err(err).Str("input", in).Msg("generation rejected")
			return Result{}, err
		}
		return Result{}, rw.fail(in, err)
	}
	defer release()

	rw.log.Info().
		Str("input", in).
		Int("max_new_tokens", req.MaxNewTokens).
		Float64("temperature", req.Temperature).
		Msg("generating response")

	cands, err := rw.call(ctx, BuildPrompt(req.Inputs), decodingOptions(req))
	if err != nil {
		return Result{}, rw.fail(in, err)
	}
	if len(cands) == 0 {
		return Result{}, rw.fail(in, errNoCandidates)
	}
	text := strings.TrimSpace(cands[0].GeneratedText)
	if text == "" {
		return Result{}, rw.fail(in, errEmptyOutput)
	}
	rw.log.Info().
		Str("output", excerpt(text, excerptLen)).
		Dur("dur", time.Since(start)).
		Msg("generation successful")
	return Result{GeneratedText: text}, nil
}

// call runs the engine, turning a panic into an error so one bad call never
// takes the worker down.
func (rw *Rewriter) call(ctx context.Context, prompt string, opts engine.Options) (out []engine.Candidate, err error) {
	engineInflight.Inc()
	defer engineInflight.Dec()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()
	return rw.engine.Generate(ctx, prompt, opts)
}

func (rw *Rewriter) fail(in string, err error) error {
	if errors.Is(err, context.Canceled) {
		rw.log.Warn().Err(err).Str("input", in).Msg("generation canceled")
		return &EngineError{Err: err}
	}
	rw.log.Error().Err(err).Str("input", in).Msg("error in generation")
	return &EngineError{Err: err}
}
