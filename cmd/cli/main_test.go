package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/llm"
	"github.com/pep299/meeting-summarizer/internal/summary"
)

type cliStub struct {
	prompts []string
	reply   string
}

func (s *cliStub) Generate(_ context.Context, req llm.GenerationRequest) (string, error) {
	s.prompts = append(s.prompts, req.Prompt)
	return s.reply, nil
}

func testDeps(stub *cliStub) cliDeps {
	return cliDeps{
		loadConfig: func() (*config.Config, error) {
			return &config.Config{
				LLMProvider:          config.ProviderGemini,
				GeminiAPIKey:         "key",
				MaxAttempts:          3,
				RetryDelayMS:         0,
				NormalizeTranscripts: true,
			}, nil
		},
		newTextGenerator: func(*config.Config) (llm.TextGenerator, error) {
			return stub, nil
		},
	}
}

func runCLI(t *testing.T, deps cliDeps, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(deps)
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummarizeFromStdin(t *testing.T) {
	stub := &cliStub{reply: `{"tldr":"Release timing","decisions":["Ship by Friday"]}`}

	out, err := runCLI(t, testDeps(stub), "Mark: Let's ship by Friday. [00:01:23] Sarah: agreed.", "summarize")
	require.NoError(t, err)

	var env summary.Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.OK)
	assert.Equal(t, []string{"Ship by Friday"}, env.Summary.Decisions)

	require.Len(t, stub.prompts, 1)
	assert.NotContains(t, stub.prompts[0], "[00:01:23]")
}

func TestSummarizeNoClean(t *testing.T) {
	stub := &cliStub{reply: `{}`}

	_, err := runCLI(t, testDeps(stub), "Mark: hello [00:01:23]", "summarize", "--no-clean")
	require.NoError(t, err)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Mark: hello [00:01:23]")
}

func TestSummarizeMarkdownFromFile(t *testing.T) {
	stub := &cliStub{reply: `{"decisions":["Ship by Friday"]}`}
	path := filepath.Join(t.TempDir(), "standup.txt")
	require.NoError(t, os.WriteFile(path, []byte("We ship Friday."), 0o644))

	out, err := runCLI(t, testDeps(stub), "", "summarize", "--format", "markdown", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Meeting summary")
	assert.Contains(t, out, "- Ship by Friday")
}

func TestSummarizeHTML(t *testing.T) {
	stub := &cliStub{reply: `{"decisions":["Ship by Friday"]}`}

	out, err := runCLI(t, testDeps(stub), "We ship Friday.", "summarize", "-f", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<li>Ship by Friday</li>")
}

func TestSummarizeEmptyInput(t *testing.T) {
	stub := &cliStub{}

	_, err := runCLI(t, testDeps(stub), "   \n", "summarize")
	assert.True(t, errors.Is(err, summary.ErrEmptyInput))
	assert.Empty(t, stub.prompts)
}

func TestSummarizeBadFormat(t *testing.T) {
	stub := &cliStub{}

	_, err := runCLI(t, testDeps(stub), "text", "summarize", "--format", "yaml")
	assert.Error(t, err)
	assert.Empty(t, stub.prompts)
}

func TestSummarizeMissingFile(t *testing.T) {
	_, err := runCLI(t, testDeps(&cliStub{}), "", "summarize", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSummarizeConfigError(t *testing.T) {
	deps := testDeps(&cliStub{})
	deps.loadConfig = func() (*config.Config, error) {
		return nil, &config.ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
	}

	_, err := runCLI(t, deps, "text", "summarize")
	require.Error(t, err)
	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCleanCommand(t *testing.T) {
	out, err := runCLI(t, testDeps(&cliStub{}), "Mark: Let's ship by Friday. [00:01:23] Sarah: agreed.", "clean")
	require.NoError(t, err)
	assert.Equal(t, "Let's ship by Friday. Sarah: agreed.\n", out)
}

func TestSchemaCommand(t *testing.T) {
	out, err := runCLI(t, testDeps(&cliStub{}), "", "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Meeting summary", doc["title"])
}
