package summary

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Summary is the fixed output shape. Every field is always present and every
// list is non-nil after Sanitize.
type Summary struct {
	TLDR             string        `json:"tldr" jsonschema:"description=One or two sentence gist of the meeting"`
	ExecutiveSummary string        `json:"executive_summary"`
	ProgressUpdates  []string      `json:"progress_updates"`
	Challenges       []string      `json:"challenges"`
	RisksBlockers    []string      `json:"risks_blockers"`
	Decisions        []string      `json:"decisions"`
	NextSteps        []string      `json:"next_steps"`
	ProjectHealth    string        `json:"project_health"`
	TeamAlignment    TeamAlignment `json:"team_alignment"`
}

// TeamAlignment groups where the team agreed, disagreed or was confused
type TeamAlignment struct {
	Agreements    []string `json:"agreements"`
	Misalignments []string `json:"misalignments"`
	Confusions    []string `json:"confusions"`
}

// Envelope is the response returned to callers
type Envelope struct {
	OK                bool    `json:"ok"`
	SourceTextSnippet string  `json:"source_text_snippet"`
	Summary           Summary `json:"summary"`
	LLMRaw            string  `json:"llm_raw"`
}

// Sanitize coerces a loosely typed mapping into a Summary. Missing or falsy
// scalars become "", missing or non-list sequences become empty lists and
// unknown keys are dropped. It never fails and Sanitize of a sanitized value
// is the same value.
func Sanitize(parsed map[string]any) Summary {
	team, _ := parsed["team_alignment"].(map[string]any)

	return Summary{
		TLDR:             scalar(parsed["tldr"]),
		ExecutiveSummary: scalar(parsed["executive_summary"]),
		ProgressUpdates:  sequence(parsed["progress_updates"]),
		Challenges:       sequence(parsed["challenges"]),
		RisksBlockers:    sequence(parsed["risks_blockers"]),
		Decisions:        sequence(parsed["decisions"]),
		NextSteps:        sequence(parsed["next_steps"]),
		ProjectHealth:    scalar(parsed["project_health"]),
		TeamAlignment: TeamAlignment{
			Agreements:    sequence(team["agreements"]),
			Misalignments: sequence(team["misalignments"]),
			Confusions:    sequence(team["confusions"]),
		},
	}
}

// ToMap renders s as the loosely typed mapping Sanitize accepts
func (s Summary) ToMap() map[string]any {
	return map[string]any{
		"tldr":              s.TLDR,
		"executive_summary": s.ExecutiveSummary,
		"progress_updates":  toAnySlice(s.ProgressUpdates),
		"challenges":        toAnySlice(s.Challenges),
		"risks_blockers":    toAnySlice(s.RisksBlockers),
		"decisions":         toAnySlice(s.Decisions),
		"next_steps":        toAnySlice(s.NextSteps),
		"project_health":    s.ProjectHealth,
		"team_alignment": map[string]any{
			"agreements":    toAnySlice(s.TeamAlignment.Agreements),
			"misalignments": toAnySlice(s.TeamAlignment.Misalignments),
			"confusions":    toAnySlice(s.TeamAlignment.Confusions),
		},
	}
}

// scalar maps a JSON value to a string. Falsy values give "".
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return ""
	case float64:
		if val == 0 {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case []any:
		if len(val) == 0 {
			return ""
		}
		return compactJSON(val)
	case map[string]any:
		if len(val) == 0 {
			return ""
		}
		return compactJSON(val)
	default:
		return ""
	}
}

// sequence maps a JSON value to a list of strings. Empty items are dropped.
func sequence(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range val {
			if item != "" {
				out = append(out, item)
			}
		}
	case string:
		if strings.TrimSpace(val) != "" {
			out = append(out, val)
		}
	}
	return out
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
