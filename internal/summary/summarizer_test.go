package summary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/meeting-summarizer/internal/generator"
	"github.com/pep299/meeting-summarizer/internal/llm"
	"github.com/pep299/meeting-summarizer/internal/transcript"
)

type stubJSONGenerator struct {
	outcome   *generator.Outcome
	err       error
	calls     int
	prompt    string
	maxTokens int
}

func (s *stubJSONGenerator) CreateJSONResponse(_ context.Context, prompt string, maxTokens int) (*generator.Outcome, error) {
	s.calls++
	s.prompt = prompt
	s.maxTokens = maxTokens
	return s.outcome, s.err
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestGenerateSummary(t *testing.T) {
	stub := &stubJSONGenerator{outcome: &generator.Outcome{
		JSON: map[string]any{"tldr": "Shipping", "decisions": []any{"ship by Friday"}},
		Raw:  `{"tldr":"Shipping","decisions":["ship by Friday"]}`,
	}}
	s, err := NewSummarizer(stub, WithLogger(quietLogger()))
	require.NoError(t, err)

	env, err := s.GenerateSummary(context.Background(), "We will ship by Friday.")
	require.NoError(t, err)

	assert.True(t, env.OK)
	assert.Equal(t, "We will ship by Friday.", env.SourceTextSnippet)
	assert.Equal(t, "Shipping", env.Summary.TLDR)
	assert.Equal(t, []string{"ship by Friday"}, env.Summary.Decisions)
	assert.Equal(t, []string{}, env.Summary.NextSteps)
	assert.Equal(t, stub.outcome.Raw, env.LLMRaw)
	assert.Equal(t, MaxOutputTokens, stub.maxTokens)
	assert.Equal(t, 1, stub.calls)
}

func TestGenerateSummaryEmptyInput(t *testing.T) {
	stub := &stubJSONGenerator{}
	s, err := NewSummarizer(stub, WithLogger(quietLogger()))
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := s.GenerateSummary(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Zero(t, stub.calls)
}

func TestGenerateSummaryPropagatesGeneratorFailure(t *testing.T) {
	failure := &generator.GenerationError{Attempts: 3, Err: errors.New("bad json")}
	stub := &stubJSONGenerator{err: failure}
	s, err := NewSummarizer(stub, WithLogger(quietLogger()))
	require.NoError(t, err)

	env, err := s.GenerateSummary(context.Background(), "text")
	assert.Nil(t, env)
	assert.Same(t, failure, err)
}

func TestGenerateSummaryNonObjectJSON(t *testing.T) {
	stub := &stubJSONGenerator{outcome: &generator.Outcome{JSON: []any{"a"}, Raw: `["a"]`}}
	s, err := NewSummarizer(stub, WithLogger(quietLogger()))
	require.NoError(t, err)

	env, err := s.GenerateSummary(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, emptySummary(), env.Summary)
	assert.Equal(t, `["a"]`, env.LLMRaw)
}

func TestGenerateSummarySnippetUsesOriginalText(t *testing.T) {
	stub := &stubJSONGenerator{outcome: &generator.Outcome{JSON: map[string]any{}, Raw: "{}"}}
	s, err := NewSummarizer(stub, WithLogger(quietLogger()), WithNormalizer(strings.ToUpper))
	require.NoError(t, err)

	original := strings.Repeat("abc ", 100)
	env, err := s.GenerateSummary(context.Background(), original)
	require.NoError(t, err)

	assert.Equal(t, original[:SnippetLength], env.SourceTextSnippet)
	assert.Contains(t, stub.prompt, "ABC ABC")
	assert.NotContains(t, stub.prompt, "abc abc")
}

func TestBuildPromptQuotesTranscript(t *testing.T) {
	text := `Sam said "ship it" and then """ended""" the call`
	prompt, err := BuildPrompt(text)
	require.NoError(t, err)

	encoded, err := json.Marshal(text)
	require.NoError(t, err)
	assert.Contains(t, prompt, string(encoded))
	assert.NotContains(t, prompt, `"""ended"""`)

	assert.Contains(t, prompt, `"team_alignment": {`)
	assert.Contains(t, prompt, `"risks_blockers": []`)
	assert.Contains(t, prompt, "NO markdown")
}

func TestNewSummarizerRequiresGenerator(t *testing.T) {
	_, err := NewSummarizer(nil)
	assert.Error(t, err)
}

func TestEndToEndWithNormalizer(t *testing.T) {
	original := "Mark: Let's ship by Friday. [00:01:23] Sarah: agreed."

	var prompts []string
	stubLLM := llm.GeneratorFunc(func(_ context.Context, req llm.GenerationRequest) (string, error) {
		prompts = append(prompts, req.Prompt)
		return `{"tldr":"Release timing","decisions":["Ship by Friday"],"team_alignment":{"agreements":["Sarah agreed"]}}`, nil
	})

	gen, err := generator.New(stubLLM,
		generator.WithLogger(quietLogger()),
		generator.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	require.NoError(t, err)

	s, err := NewSummarizer(gen, WithLogger(quietLogger()), WithNormalizer(transcript.Clean))
	require.NoError(t, err)

	env, err := s.GenerateSummary(context.Background(), original)
	require.NoError(t, err)

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Let's ship by Friday. Sarah: agreed.")
	assert.NotContains(t, prompts[0], "[00:01:23]")
	assert.NotContains(t, prompts[0], "Mark:")

	assert.True(t, env.OK)
	assert.Equal(t, original, env.SourceTextSnippet)
	require.NotEmpty(t, env.Summary.Decisions)
	assert.Contains(t, strings.ToLower(env.Summary.Decisions[0]), "ship by friday")
	assert.Equal(t, []string{"Sarah agreed"}, env.Summary.TeamAlignment.Agreements)
}
