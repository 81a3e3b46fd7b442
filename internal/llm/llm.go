// Package llm defines the text-generation capability the summarizer consumes.
//
// Providers (Gemini, OpenAI) implement TextGenerator. The recovery pipeline
// in package generator depends only on this contract.
package llm

import (
	"context"
	"fmt"
)

// ResponseFormat selects the output encoding requested from the model
type ResponseFormat string

// FormatJSON asks the model for a JSON document
const FormatJSON ResponseFormat = "json"

// GenerationRequest is one model call. It is built per call and never mutated.
type GenerationRequest struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
	ResponseFormat  ResponseFormat
}

// TextGenerator produces response text for a prompt
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator
type GeneratorFunc func(ctx context.Context, req GenerationRequest) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}

// TransportError wraps a failed model call (network, quota, rejected request)
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
