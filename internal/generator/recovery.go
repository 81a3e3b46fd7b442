package generator

import (
	"encoding/json"
	"strings"
)

// Stage names the step of the pipeline that produced a result
type Stage string

const (
	StageDirect  Stage = "direct"
	StageRepair  Stage = "repair"
	StageExtract Stage = "extract"
	StageRewrite Stage = "rewrite"
)

// Strategy turns raw model text into a parsed JSON value, or reports failure
type Strategy struct {
	Stage Stage
	Parse func(raw string) (any, bool)
}

// Strategies are tried in order, cheapest first. The forced rewrite is not
// listed here because it needs another model call.
var Strategies = []Strategy{
	{Stage: StageDirect, Parse: ParseDirect},
	{Stage: StageRepair, Parse: RepairTrailingCommas},
	{Stage: StageExtract, Parse: ExtractObject},
}

// ParseDirect parses raw verbatim
func ParseDirect(raw string) (any, bool) {
	parsed, err := parseStrict(raw)
	return parsed, err == nil
}

func parseStrict(raw string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// RepairTrailingCommas drops commas that directly precede a closing brace or
// bracket and parses the result.
func RepairTrailingCommas(raw string) (any, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, false
	}
	return ParseDirect(dropTrailingCommas(cleaned))
}

// dropTrailingCommas removes every comma outside a string literal whose next
// non-whitespace character is '}' or ']'.
func dropTrailingCommas(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			if next := nextNonSpace(raw, i+1); next == '}' || next == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func nextNonSpace(s string, from int) byte {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

// ExtractObject parses the span from the first '{' to the last '}', which
// covers models that wrap the object in prose or code fences.
func ExtractObject(raw string) (any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return ParseDirect(raw[start : end+1])
}

// recoverJSON runs the local strategies in order and returns the first hit
func recoverJSON(raw string) (AttemptResult, bool) {
	for _, strategy := range Strategies {
		if parsed, ok := strategy.Parse(raw); ok {
			return AttemptResult{Raw: raw, Parsed: parsed, Stage: strategy.Stage}, true
		}
	}
	return AttemptResult{Raw: raw}, false
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
