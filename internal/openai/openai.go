// Package openai implements llm.TextGenerator on top of the official
// openai-go SDK (chat completions with a JSON object response format).
package openai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pep299/meeting-summarizer/internal/llm"
)

const providerName = "openai"

// Settings carries what the provider needs from configuration
type Settings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client implements llm.TextGenerator using chat completions
type Client struct {
	model  string
	client openai.Client
}

// NewClient validates settings and builds the SDK client
func NewClient(settings Settings, extra ...option.RequestOption) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if settings.Model == "" {
		return nil, errors.New("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	opts = append(opts, extra...)
	return &Client{model: settings.Model, client: openai.NewClient(opts...)}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Generate issues one chat completion and returns the first choice's content
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if req.ResponseFormat == llm.FormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		transportErr := &llm.TransportError{Provider: providerName, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			transportErr.StatusCode = apiErr.StatusCode
		}
		return "", transportErr
	}
	if len(resp.Choices) == 0 {
		return "", &llm.TransportError{Provider: providerName, Err: errors.New("empty choices")}
	}
	return resp.Choices[0].Message.Content, nil
}
