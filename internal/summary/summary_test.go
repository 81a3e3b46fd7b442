package summary

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptySummary() Summary {
	return Summary{
		ProgressUpdates: []string{},
		Challenges:      []string{},
		RisksBlockers:   []string{},
		Decisions:       []string{},
		NextSteps:       []string{},
		TeamAlignment: TeamAlignment{
			Agreements:    []string{},
			Misalignments: []string{},
			Confusions:    []string{},
		},
	}
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestSanitizeEmpty(t *testing.T) {
	assert.Equal(t, emptySummary(), Sanitize(map[string]any{}))
	assert.Equal(t, emptySummary(), Sanitize(nil))
}

func TestSanitizeEncodesEveryKey(t *testing.T) {
	data, err := json.Marshal(Sanitize(nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"tldr": "",
		"executive_summary": "",
		"progress_updates": [],
		"challenges": [],
		"risks_blockers": [],
		"decisions": [],
		"next_steps": [],
		"project_health": "",
		"team_alignment": {"agreements": [], "misalignments": [], "confusions": []}
	}`, string(data))
}

func TestSanitizeFullObject(t *testing.T) {
	parsed := decode(t, `{
		"tldr": "Ship Friday",
		"executive_summary": "Team agreed to ship.",
		"progress_updates": ["API done"],
		"challenges": ["flaky tests"],
		"risks_blockers": [],
		"decisions": ["ship by Friday"],
		"next_steps": ["tag release"],
		"project_health": "green",
		"team_alignment": {"agreements": ["date"], "misalignments": [], "confusions": ["owner"]},
		"extra": "dropped"
	}`)

	got := Sanitize(parsed)

	assert.Equal(t, "Ship Friday", got.TLDR)
	assert.Equal(t, "Team agreed to ship.", got.ExecutiveSummary)
	assert.Equal(t, []string{"API done"}, got.ProgressUpdates)
	assert.Equal(t, []string{"ship by Friday"}, got.Decisions)
	assert.Equal(t, []string{}, got.RisksBlockers)
	assert.Equal(t, "green", got.ProjectHealth)
	assert.Equal(t, []string{"date"}, got.TeamAlignment.Agreements)
	assert.Equal(t, []string{"owner"}, got.TeamAlignment.Confusions)
}

func TestSanitizeCoercesWrongTypes(t *testing.T) {
	parsed := decode(t, `{
		"tldr": null,
		"executive_summary": false,
		"project_health": 7,
		"progress_updates": null,
		"challenges": "single challenge",
		"risks_blockers": {"not": "a list"},
		"decisions": ["keep", null, "", 3, true, {"who": "Sam"}],
		"next_steps": 42,
		"team_alignment": ["wrong", "shape"]
	}`)

	got := Sanitize(parsed)

	assert.Equal(t, "", got.TLDR)
	assert.Equal(t, "", got.ExecutiveSummary)
	assert.Equal(t, "7", got.ProjectHealth)
	assert.Equal(t, []string{}, got.ProgressUpdates)
	assert.Equal(t, []string{"single challenge"}, got.Challenges)
	assert.Equal(t, []string{}, got.RisksBlockers)
	assert.Equal(t, []string{"keep", "3", "true", `{"who":"Sam"}`}, got.Decisions)
	assert.Equal(t, []string{}, got.NextSteps)
	assert.Equal(t, []string{}, got.TeamAlignment.Agreements)
	assert.Equal(t, []string{}, got.TeamAlignment.Misalignments)
	assert.Equal(t, []string{}, got.TeamAlignment.Confusions)
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"tldr": "x", "decisions": ["a", "b"]}`,
		`{"challenges": "one", "project_health": 0.5, "team_alignment": {"agreements": "all"}}`,
		`{"decisions": [1, null, {"a": [1, 2]}], "next_steps": ["  "], "tldr": {"k": "v"}}`,
		`{"team_alignment": null, "risks_blockers": [[], ["nested"]]}`,
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			once := Sanitize(decode(t, raw))
			twice := Sanitize(once.ToMap())
			assert.Equal(t, once, twice)

			// also through a JSON round trip, the way a client would see it
			data, err := json.Marshal(once)
			require.NoError(t, err)
			assert.Equal(t, once, Sanitize(decode(t, string(data))))
		})
	}
}

func TestSnippet(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, Snippet(short))

	long := make([]rune, 250)
	for i := range long {
		long[i] = 'é'
	}
	got := Snippet(string(long))
	assert.Len(t, []rune(got), SnippetLength)
}

func TestJSONSchema(t *testing.T) {
	schema := JSONSchema()
	require.NotNil(t, schema)

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"tldr", "executive_summary", "decisions", "team_alignment"} {
		assert.Contains(t, props, key)
	}
	assert.Equal(t, "Meeting summary", doc["title"])
}
