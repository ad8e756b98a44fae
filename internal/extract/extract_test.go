package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

const notice = `MAHARAJA SURAJMAL INSTITUTE
Date: 01/12/2023

Annual Technical Fest
All students are invited to participate in the annual fest.
Date of Event: 05/12/2023
Venue: Main Auditorium`

func TestExtract(t *testing.T) {
	got := Extract(notice)

	assert.Equal(t, "Annual Technical Fest", got.Heading)
	assert.Equal(t, "05/12/2023", got.EventDate)
	assert.Equal(t, "Annual Technical Fest All students are invited to participate in the annual fest.", got.Summary)
}

func TestHeading(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "line after date", text: "Date: 01/01/2024\nHoliday Notice\nbody", want: "Holiday Notice"},
		{name: "no date line", text: "Holiday Notice\nbody", want: ""},
		{name: "blank lines skipped", text: "Date: x\n\n   \nExam Schedule", want: "Exam Schedule"},
		{name: "first date line wins", text: "Date: a\nFirst\nDate: b\nSecond", want: "First"},
		{name: "indented date line", text: "   Date: 02/02/2024  \n  Indented Heading  ", want: "Indented Heading"},
		{name: "date line is last", text: "intro\nDate: 02/02/2024", want: ""},
		{name: "event date is not a date line", text: "Date of Event: 01/01/2024\nNot a heading", want: ""},
		{name: "crlf input", text: "Date: 1\r\nCRLF Heading\r\nbody", want: "CRLF Heading"},
		{name: "empty input", text: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).Heading)
		})
	}
}

func TestEventDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "exact", text: "Date of Event: 05/12/2023", want: "05/12/2023"},
		{name: "trailing text kept", text: "Date of Event: 05/12/2023 (Tuesday)", want: "05/12/2023 (Tuesday)"},
		{name: "first occurrence", text: "Date of Event: 01/01/2024\nDate of Event: 02/02/2024", want: "01/01/2024"},
		{name: "no validation", text: "Date of Event: 99/99/9999", want: "99/99/9999"},
		{name: "missing", text: "Date: 01/01/2024\nHeading", want: ""},
		{name: "prefix must start line", text: "See Date of Event: 01/01/2024", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).EventDate)
		})
	}
}

func TestSummary(t *testing.T) {
	t.Run("heading on last line", func(t *testing.T) {
		got := Extract("Date: 01/01/2024\nOnly Heading")
		assert.Equal(t, "Only Heading", got.Summary)
	})

	t.Run("blank line after heading", func(t *testing.T) {
		got := Extract("Date: 01/01/2024\nHeading\n\nBody")
		assert.Equal(t, "Heading", got.Summary)
	})

	t.Run("empty heading gives empty summary", func(t *testing.T) {
		got := Extract("no markers here\nat all")
		assert.Empty(t, got.Summary)
	})

	t.Run("truncated to max length", func(t *testing.T) {
		body := strings.Repeat("word ", 60)
		got := Extract("Date: 01/01/2024\nHeading\n" + body)
		assert.Equal(t, MaxSummaryLength, utf8.RuneCountInString(got.Summary))
		assert.True(t, strings.HasPrefix(got.Summary, "Heading word"))
	})

	t.Run("truncation is rune safe", func(t *testing.T) {
		body := strings.Repeat("सूचना ", 40)
		got := Extract("Date: 01/01/2024\nशीर्षक\n" + body)
		assert.True(t, utf8.ValidString(got.Summary))
		assert.LessOrEqual(t, utf8.RuneCountInString(got.Summary), MaxSummaryLength)
	})

	t.Run("matches first line equal to heading", func(t *testing.T) {
		lines := []string{"Heading", "before", "Date: x", "Heading", "after"}
		assert.Equal(t, "Heading before", Summary(lines, "Heading"))
	})
}

func TestSummaryNeverExceedsMax(t *testing.T) {
	inputs := []string{
		"",
		"Date: 1\n" + strings.Repeat("a", 500),
		"Date: 1\nH\n" + strings.Repeat("b", 500),
		"Date: 1\n" + strings.Repeat("c", 124) + "\n" + strings.Repeat("d", 10),
	}
	for _, in := range inputs {
		assert.LessOrEqual(t, utf8.RuneCountInString(Extract(in).Summary), MaxSummaryLength)
	}
}
