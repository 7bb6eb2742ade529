package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"icalyse/internal/model"
)

func summaries(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Summary)
	}
	return out
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, DefaultSortKey, ParseSortKey(nil))
	assert.Equal(t, SortKey{Field: "summary", Direction: "desc"}, ParseSortKey(model.Str("summary-desc")))
	assert.Equal(t, SortKey{Field: "length", Direction: ""}, ParseSortKey(model.Str("length")))
}

func TestSortByDateIsStable(t *testing.T) {
	events := []model.Event{
		event(t, "late", "2024-01-03T09:00", ""),
		event(t, "tie-1", "2024-01-02T09:00", ""),
		event(t, "early", "2024-01-01T09:00", ""),
		event(t, "tie-2", "2024-01-02T09:00", ""),
	}
	s := NewSorter("en")

	asc := s.Sort(events, SortKey{Field: SortByDate, Direction: SortAsc})
	desc := s.Sort(events, SortKey{Field: SortByDate, Direction: SortDesc})

	assert.Equal(t, []string{"early", "tie-1", "tie-2", "late"}, summaries(asc))
	assert.Equal(t, []string{"late", "tie-1", "tie-2", "early"}, summaries(desc))
	// Input is left untouched.
	assert.Equal(t, "late", events[0].Summary)
}

func TestSortIsIdempotent(t *testing.T) {
	events := []model.Event{
		event(t, "b", "2024-01-02T09:00", ""),
		event(t, "a", "2024-01-02T09:00", ""),
		event(t, "c", "2024-01-01T09:00", ""),
	}
	s := NewSorter("en")

	for _, key := range []SortKey{
		{Field: SortByDate, Direction: SortAsc},
		{Field: SortBySummary, Direction: SortDesc},
	} {
		once := s.Sort(events, key)
		assert.Equal(t, once, s.Sort(once, key))
	}
}

func TestSortBySummaryUsesCollation(t *testing.T) {
	events := []model.Event{
		{Summary: "Zebra"},
		{Summary: "éclair"},
		{Summary: "apple"},
		{},
	}
	s := NewSorter("en")

	got := s.Sort(events, SortKey{Field: SortBySummary, Direction: SortAsc})

	// Byte order would put "Zebra" before the lowercase and accented words.
	assert.Equal(t, []string{"", "apple", "éclair", "Zebra"}, summaries(got))
}

func TestSortMissingStartSortsAsEpoch(t *testing.T) {
	events := []model.Event{
		event(t, "dated", "2024-01-01T09:00", ""),
		{Summary: "undated"},
	}

	got := NewSorter("en").Sort(events, DefaultSortKey)

	assert.Equal(t, []string{"undated", "dated"}, summaries(got))
}

func TestSortUnknownFieldKeepsOrder(t *testing.T) {
	events := []model.Event{
		event(t, "b", "2024-01-03T09:00", ""),
		event(t, "a", "2024-01-01T09:00", ""),
	}

	got := NewSorter("en").Sort(events, ParseSortKey(model.Str("duration-desc")))

	assert.Equal(t, []string{"b", "a"}, summaries(got))
}

func TestSortUnknownDirectionIsAscending(t *testing.T) {
	events := []model.Event{
		event(t, "b", "2024-01-03T09:00", ""),
		event(t, "a", "2024-01-01T09:00", ""),
	}

	got := NewSorter("en").Sort(events, ParseSortKey(model.Str("date-sideways")))

	assert.Equal(t, []string{"a", "b"}, summaries(got))
}

func TestNewSorterInvalidLocale(t *testing.T) {
	s := NewSorter("!!")
	got := s.Sort([]model.Event{{Summary: "b"}, {Summary: "a"}}, SortKey{Field: SortBySummary, Direction: SortAsc})
	assert.Equal(t, []string{"a", "b"}, summaries(got))
}

func TestSortEmpty(t *testing.T) {
	got := NewSorter("en").Sort(nil, DefaultSortKey)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
