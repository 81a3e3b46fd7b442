package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/meeting-summarizer/internal/llm"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "models/gemini-2.5-flash")

	require.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "gemini-2.5-flash", client.Model())
	assert.NotNil(t, client.httpClient)
	assert.Contains(t, client.baseURL, "generativelanguage.googleapis.com")
}

func TestGenerate(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{
							map[string]any{"text": `{"tldr":`},
							map[string]any{"text": `"ok"}`},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("secret", "gemini-test").WithBaseURL(server.URL)
	text, err := client.Generate(context.Background(), llm.GenerationRequest{
		Prompt:          "summarize",
		MaxOutputTokens: 1200,
		Temperature:     0.1,
		ResponseFormat:  llm.FormatJSON,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"tldr":"ok"}`, text)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, 1200, captured.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, 0.1, captured.GenerationConfig.Temperature)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	assert.Equal(t, "summarize", captured.Contents[0].Parts[0].Text)
}

func TestGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota"}`))
	}))
	defer server.Close()

	client := NewClient("secret", "gemini-test").WithBaseURL(server.URL)
	_, err := client.Generate(context.Background(), llm.GenerationRequest{Prompt: "x"})
	require.Error(t, err)

	var transportErr *llm.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusTooManyRequests, transportErr.StatusCode)
	assert.True(t, strings.Contains(err.Error(), "quota"))
}

func TestGenerateEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient("secret", "gemini-test").WithBaseURL(server.URL)
	_, err := client.Generate(context.Background(), llm.GenerationRequest{Prompt: "x"})

	var transportErr *llm.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "no content")
}

func TestGenerateBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	client := NewClient("secret", "gemini-test").WithBaseURL(server.URL)
	_, err := client.Generate(context.Background(), llm.GenerationRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}
