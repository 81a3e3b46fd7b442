// Package report renders summaries for people: Markdown, HTML and Slack
// message text.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/pep299/meeting-summarizer/internal/summary"
)

type section struct {
	title string
	items []string
}

func sections(s summary.Summary) []section {
	return []section{
		{"Progress updates", s.ProgressUpdates},
		{"Challenges", s.Challenges},
		{"Risks and blockers", s.RisksBlockers},
		{"Decisions", s.Decisions},
		{"Next steps", s.NextSteps},
	}
}

func alignment(s summary.Summary) []section {
	return []section{
		{"Agreements", s.TeamAlignment.Agreements},
		{"Misalignments", s.TeamAlignment.Misalignments},
		{"Confusions", s.TeamAlignment.Confusions},
	}
}

// Markdown renders s as a Markdown document
func Markdown(s summary.Summary) string {
	var b strings.Builder

	b.WriteString("# Meeting summary\n\n")
	if s.TLDR != "" {
		fmt.Fprintf(&b, "**TL;DR:** %s\n\n", oneLine(s.TLDR))
	}
	if s.ExecutiveSummary != "" {
		b.WriteString("## Executive summary\n\n")
		b.WriteString(strings.TrimSpace(s.ExecutiveSummary))
		b.WriteString("\n\n")
	}

	for _, sec := range sections(s) {
		writeList(&b, "## "+sec.title, sec.items)
	}

	if s.ProjectHealth != "" {
		fmt.Fprintf(&b, "## Project health\n\n%s\n\n", oneLine(s.ProjectHealth))
	}

	b.WriteString("## Team alignment\n\n")
	for _, sec := range alignment(s) {
		writeList(&b, "### "+sec.title, sec.items)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// HTML renders s as an HTML fragment. Raw HTML coming from the model is
// not passed through.
func HTML(s summary.Summary) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(s)), &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

// Slack renders s as Slack mrkdwn. Empty sections are skipped.
func Slack(s summary.Summary, source string) string {
	var b strings.Builder

	b.WriteString(":memo: *Meeting summary*\n")
	if source != "" {
		fmt.Fprintf(&b, "_Source: %s_\n", oneLine(source))
	}
	if s.TLDR != "" {
		fmt.Fprintf(&b, "\n*TL;DR* %s\n", oneLine(s.TLDR))
	}

	for _, sec := range append(sections(s), alignment(s)...) {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*%s*\n", sec.title)
		for _, item := range sec.items {
			fmt.Fprintf(&b, "• %s\n", oneLine(item))
		}
	}

	if s.ProjectHealth != "" {
		fmt.Fprintf(&b, "\n*Project health* %s\n", oneLine(s.ProjectHealth))
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	b.WriteString(heading)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("_None_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", oneLine(item))
	}
	b.WriteString("\n")
}

// oneLine keeps list items on a single line so they don't break the list
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
