package model

import (
	"sort"
	"time"
)

// EventDateLayout is the DD/MM/YYYY form printed on notices.
const EventDateLayout = "02/01/2006"

// ParseEventDate parses a DD/MM/YYYY event date. Single-digit day or month
// parts are accepted.
func ParseEventDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{EventDateLayout, "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByEventDate orders docs newest event first. Documents without a
// parsable event date go last, newest id first among equals.
func SortByEventDate(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		ti, oki := ParseEventDate(docs[i].EventDate)
		tj, okj := ParseEventDate(docs[j].EventDate)
		switch {
		case oki && okj && !ti.Equal(tj):
			return ti.After(tj)
		case oki != okj:
			return oki
		}
		if len(docs[i].ID) != len(docs[j].ID) {
			return len(docs[i].ID) > len(docs[j].ID)
		}
		return docs[i].ID > docs[j].ID
	})
}
