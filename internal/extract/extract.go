// Package extract turns raw OCR output of a scanned notice into structured fields.
//
// The heuristics are line based and intentionally forgiving: malformed input never
// produces an error, missing fields resolve to the empty string.
package extract

import (
	"strings"

	"github.com/PracticalMetal/major-notice/internal/model"
)

const (
	// DatePrefix marks the issue-date line that precedes a notice heading.
	DatePrefix = "Date: "
	// EventDatePrefix marks the line carrying the event date.
	EventDatePrefix = "Date of Event: "
	// MaxSummaryLength bounds the summary, counted in runes.
	MaxSummaryLength = 125
)

// Extract parses OCR text into heading, event date and summary.
func Extract(text string) model.Extraction {
	lines := splitLines(text)
	heading := Heading(lines)
	return model.Extraction{
		Heading:   heading,
		EventDate: EventDate(lines),
		Summary:   Summary(lines, heading),
	}
}

// Heading returns the first non-blank line after the first line starting with
// DatePrefix. Later DatePrefix lines are ignored.
func Heading(lines []string) string {
	found := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !found {
			if strings.HasPrefix(line, DatePrefix) {
				found = true
			}
			continue
		}
		if line == "" {
			continue
		}
		return line
	}
	return ""
}

// EventDate returns the text following EventDatePrefix on the first line that
// carries it. The value is not validated; trailing noise is kept verbatim.
func EventDate(lines []string) string {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, EventDatePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, EventDatePrefix))
		}
	}
	return ""
}

// Summary joins the heading line with the line right after it and truncates the
// result to MaxSummaryLength runes. An empty heading yields an empty summary.
func Summary(lines []string, heading string) string {
	if heading == "" {
		return ""
	}
	for i, raw := range lines {
		if strings.TrimSpace(raw) != heading {
			continue
		}
		summary := heading
		if i+1 < len(lines) {
			if next := strings.TrimSpace(lines[i+1]); next != "" {
				summary = heading + " " + next
			}
		}
		return truncate(summary, MaxSummaryLength)
	}
	return ""
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
