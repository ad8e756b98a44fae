package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEventDate(t *testing.T) {
	got, ok := ParseEventDate("05/03/2024")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseEventDate("5/3/2024")
	assert.True(t, ok)
	assert.Equal(t, time.March, got.Month())

	for _, bad := range []string{"", "31/02/2024", "2024-03-05", "soon"} {
		_, ok := ParseEventDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestSortByEventDate(t *testing.T) {
	docs := []Document{
		{ID: "1", EventDate: "01/01/2024"},
		{ID: "2", EventDate: ""},
		{ID: "3", EventDate: "15/06/2024"},
		{ID: "4", EventDate: "garbled"},
		{ID: "5", EventDate: "01/01/2024"},
		{ID: "10", EventDate: "01/01/2023"},
	}

	SortByEventDate(docs)

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"3", "5", "1", "10", "4", "2"}, ids)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.DisplayName())
}
