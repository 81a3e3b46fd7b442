// Package generator turns an unreliable text-generation call into a
// syntactically valid JSON value.
//
// # Recovery pipeline
//
// Each outer attempt calls the model once and then tries, in order:
//
//   - direct parse of the response text
//   - trailing-comma repair
//   - extraction of the outermost {...} span
//   - a forced rewrite: one more model call asking for strict JSON, parsed directly
//
// The first success ends the call. Any failure (transport error or an
// unparseable rewrite) consumes the attempt; after a fixed delay the whole
// sequence starts over from a fresh model call. When every attempt fails the
// call returns a *GenerationError and never a partial value.
//
// The delay is injected through WithSleeper so tests can assert both the
// attempt count and the delays without waiting.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/llm"
	"github.com/pep299/meeting-summarizer/internal/logging"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 600 * time.Millisecond

	generationTemperature = 0.1
	rewriteTemperature    = 0.0
)

// AttemptResult is what one pass through the stages produced
type AttemptResult struct {
	Raw    string
	Parsed any
	Stage  Stage
}

// Outcome is the terminal success value. JSON always holds a valid JSON value.
type Outcome struct {
	JSON     any
	Raw      string
	Stage    Stage
	Attempts int
}

// GenerationError reports that every outer attempt failed
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("structured generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ParseError reports that the forced rewrite still did not yield JSON
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rewritten output is not valid JSON: %v (snippet: %s)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Generator wraps a TextGenerator with the recovery pipeline
type Generator struct {
	llm         llm.TextGenerator
	maxAttempts int
	retryDelay  time.Duration
	sleeper     func(ctx context.Context, d time.Duration) error
	logger      *logrus.Entry
}

// Option customizes the generator
type Option func(*Generator)

// WithMaxAttempts overrides the number of outer attempts (defaults to 3)
func WithMaxAttempts(attempts int) Option {
	return func(g *Generator) {
		if attempts > 0 {
			g.maxAttempts = attempts
		}
	}
}

// WithRetryDelay overrides the fixed delay between failed attempts
func WithRetryDelay(delay time.Duration) Option {
	return func(g *Generator) {
		if delay >= 0 {
			g.retryDelay = delay
		}
	}
}

// WithSleeper overrides how delays are performed (useful for tests)
func WithSleeper(sleeper func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Generator) {
		if sleeper != nil {
			g.sleeper = sleeper
		}
	}
}

// WithLogger overrides the component logger
func WithLogger(logger *logrus.Entry) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New wraps textGen with the recovery pipeline
func New(textGen llm.TextGenerator, opts ...Option) (*Generator, error) {
	if textGen == nil {
		return nil, errors.New("text generator is required")
	}
	g := &Generator{
		llm:         textGen,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		sleeper:     sleepContext,
		logger:      logging.NewLogger("generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewFromConfig builds a generator with the attempt cap and delay from cfg
func NewFromConfig(cfg *config.Config, textGen llm.TextGenerator, opts ...Option) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	base := []Option{WithMaxAttempts(cfg.MaxAttempts), WithRetryDelay(cfg.RetryDelay())}
	return New(textGen, append(base, opts...)...)
}

// CreateJSONResponse runs the recovery pipeline for prompt with the given
// output token budget.
func (g *Generator) CreateJSONResponse(ctx context.Context, prompt string, maxTokens int) (*Outcome, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		result, err := g.attempt(ctx, prompt, maxTokens)
		if err == nil {
			g.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"stage":   result.Stage,
			}).Debug("structured output recovered")
			return &Outcome{
				JSON:     result.Parsed,
				Raw:      result.Raw,
				Stage:    result.Stage,
				Attempts: attempt,
			}, nil
		}

		lastErr = err
		g.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": g.maxAttempts,
		}).Warn("structured generation attempt failed")

		if attempt == g.maxAttempts {
			break
		}
		if sleepErr := g.sleeper(ctx, g.retryDelay); sleepErr != nil {
			return nil, &GenerationError{Attempts: attempt, Err: sleepErr}
		}
	}

	return nil, &GenerationError{Attempts: g.maxAttempts, Err: lastErr}
}

// attempt is one full pass: call, local recovery, forced rewrite
func (g *Generator) attempt(ctx context.Context, prompt string, maxTokens int) (AttemptResult, error) {
	raw, err := g.llm.Generate(ctx, llm.GenerationRequest{
		Prompt:          prompt,
		MaxOutputTokens: maxTokens,
		Temperature:     generationTemperature,
		ResponseFormat:  llm.FormatJSON,
	})
	if err != nil {
		return AttemptResult{}, fmt.Errorf("generate: %w", err)
	}

	if result, ok := recoverJSON(raw); ok {
		return result, nil
	}

	g.logger.WithField("raw", snippet(raw)).Info("local JSON recovery failed, requesting rewrite")

	rewritten, err := g.llm.Generate(ctx, llm.GenerationRequest{
		Prompt:          BuildRewritePrompt(raw),
		MaxOutputTokens: maxTokens,
		Temperature:     rewriteTemperature,
		ResponseFormat:  llm.FormatJSON,
	})
	if err != nil {
		return AttemptResult{}, fmt.Errorf("rewrite: %w", err)
	}

	parsed, err := parseStrict(rewritten)
	if err != nil {
		return AttemptResult{}, &ParseError{Snippet: snippet(rewritten), Err: err}
	}
	return AttemptResult{Raw: rewritten, Parsed: parsed, Stage: StageRewrite}, nil
}

// BuildRewritePrompt asks the model to turn raw into strict JSON
func BuildRewritePrompt(raw string) string {
	return fmt.Sprintf(`Convert the following text into VALID JSON ONLY.
Do not include comments, markdown, or text outside the JSON.
Fix formatting, remove invalid commas, ensure every key has a value.

RAW:
%s
`, raw)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
