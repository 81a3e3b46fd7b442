// Package transcript strips export artifacts from meeting transcripts before
// they are handed to the model.
package transcript

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	timestampRe      = regexp.MustCompile(`\[?\b(?:\d{1,2}:)?\d{1,2}:\d{2}\b\]?`)
	parenTimestampRe = regexp.MustCompile(`\(\s*\d{1,2}:\d{2}\s*\)`)
	bulletRe         = regexp.MustCompile(`^[\-\*\x{2022}]\s*`)
	speakerPrefixRe  = regexp.MustCompile(`^[\s"']*([A-Za-z][A-Za-z0-9 .\-]{0,40})\s*[:\-–—]+\s*`)
	underscoreRunRe  = regexp.MustCompile(`_{3,}`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Clean removes timestamps, speaker prefixes, bullets and underline runs line
// by line, collapses whitespace and drops blank lines. Remaining lines are
// joined with a blank line between them.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = cleanLine(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n\n"))
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	line = parenTimestampRe.ReplaceAllString(line, "")
	line = timestampRe.ReplaceAllString(line, "")
	line = bulletRe.ReplaceAllString(line, "")
	line = speakerPrefixRe.ReplaceAllString(line, "")
	line = underscoreRunRe.ReplaceAllString(line, "")
	line = whitespaceRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}
