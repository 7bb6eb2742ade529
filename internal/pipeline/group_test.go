package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icalyse/internal/model"
)

func sumHours(rows []model.AugmentedEvent) float64 {
	var total float64
	for _, r := range rows {
		total += r.TotalHours
	}
	return total
}

func TestParseGroupMode(t *testing.T) {
	assert.Equal(t, GroupNone, ParseGroupMode(nil))
	assert.Equal(t, GroupMonth, ParseGroupMode(model.Str("month")))
	assert.Equal(t, GroupSummary, ParseGroupMode(model.Str("summary")))
	assert.Equal(t, GroupNone, ParseGroupMode(model.Str("week")))
}

func TestGroupNoneComputesHours(t *testing.T) {
	events := []model.Event{
		event(t, "a", "2024-01-02T09:00", "2024-01-02T10:20"),
		event(t, "backwards", "2024-01-02T10:00", "2024-01-02T09:00"),
	}

	rows := Group(events, GroupNone, time.UTC)

	require.Len(t, rows, 2)
	assert.Equal(t, events[0], rows[0].Event)
	assert.InDelta(t, 80.0/60.0, rows[0].TotalHours, 1e-9)
	assert.InDelta(t, -1, rows[1].TotalHours, 1e-9)
}

func TestHoursMatchExactSeconds(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, secs := range []int64{0, 1, 59, 3599, 3600, 5400, 86399, 123457} {
		ev := model.Event{Start: start, End: start.Add(time.Duration(secs) * time.Second)}
		rows := Group([]model.Event{ev}, GroupNone, time.UTC)
		assert.Less(t, abs(rows[0].TotalHours-float64(secs)/3600), 1e-9)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestGroupBySummaryStandupScenario(t *testing.T) {
	events := []model.Event{
		event(t, "Standup", "2024-01-02T09:00", "2024-01-02T09:15"),
		event(t, "Standup", "2024-01-09T09:00", "2024-01-09T09:30"),
	}

	rows := Group(events, GroupSummary, time.UTC)

	require.Len(t, rows, 1)
	assert.Equal(t, "Standup", rows[0].Summary)
	assert.InDelta(t, 0.75, rows[0].TotalHours, 1e-9)
	assert.True(t, rows[0].Start.Equal(at(t, "2024-01-02T09:00")))
	assert.True(t, rows[0].End.Equal(at(t, "2024-01-09T09:30")))
}

func TestGroupByMonth(t *testing.T) {
	jan1 := event(t, "Review", "2024-01-20T10:00", "2024-01-20T12:00")
	jan1.Location = "Office"
	jan1.Description = "first seen"
	feb := event(t, "Call", "2024-02-01T09:00", "2024-02-01T10:00")
	jan2 := event(t, "Standup", "2024-01-05T09:00", "2024-01-05T09:30")

	rows := Group([]model.Event{jan1, feb, jan2}, GroupMonth, time.UTC)

	require.Len(t, rows, 2)
	assert.Equal(t, "January 2024", rows[0].Summary)
	assert.Equal(t, "February 2024", rows[1].Summary)

	assert.InDelta(t, 2.5, rows[0].TotalHours, 1e-9)
	assert.True(t, rows[0].Start.Equal(jan2.Start))
	assert.True(t, rows[0].End.Equal(jan1.End))
	assert.Empty(t, rows[0].Location)
	assert.Equal(t, "first seen", rows[0].Description)

	assert.InDelta(t, 1, rows[1].TotalHours, 1e-9)
}

func TestGroupMonthUsesLocation(t *testing.T) {
	ev := event(t, "late", "2024-01-31T23:30", "2024-02-01T00:30")

	utc := Group([]model.Event{ev}, GroupMonth, time.UTC)
	east := Group([]model.Event{ev}, GroupMonth, time.FixedZone("UTC+2", 2*3600))

	assert.Equal(t, "January 2024", utc[0].Summary)
	assert.Equal(t, "February 2024", east[0].Summary)
}

func TestGroupMonthUndatedIgnoresLocation(t *testing.T) {
	events := []model.Event{{Summary: "undated"}}

	west := Group(events, GroupMonth, time.FixedZone("UTC-5", -5*3600))
	east := Group(events, GroupMonth, time.FixedZone("UTC+9", 9*3600))

	require.Len(t, west, 1)
	assert.Equal(t, "January 1970", west[0].Summary)
	assert.Equal(t, "January 1970", east[0].Summary)
}

func TestGroupingConservesHours(t *testing.T) {
	events := []model.Event{
		event(t, "A", "2024-01-01T09:00", "2024-01-01T10:00"),
		event(t, "B", "2024-01-15T09:00", "2024-01-15T11:30"),
		event(t, "A", "2024-02-01T09:00", "2024-02-01T09:45"),
		event(t, "C", "2024-03-10T22:00", "2024-03-11T01:00"),
		event(t, "B", "2024-03-12T09:00", "2024-03-12T08:00"),
	}
	want := sumHours(Group(events, GroupNone, time.UTC))

	assert.InDelta(t, want, sumHours(Group(events, GroupMonth, time.UTC)), 1e-9)
	assert.InDelta(t, want, sumHours(Group(events, GroupSummary, time.UTC)), 1e-9)
}

func TestGroupMissingDatesDoNotPanic(t *testing.T) {
	events := []model.Event{
		{Summary: "undated"},
		event(t, "dated", "2024-01-01T09:00", "2024-01-01T10:00"),
		{Summary: "undated"},
	}

	var rows []model.AugmentedEvent
	assert.NotPanics(t, func() { rows = Group(events, GroupMonth, time.UTC) })
	require.Len(t, rows, 2)
	assert.Equal(t, "January 1970", rows[0].Summary)
	assert.Equal(t, "January 2024", rows[1].Summary)

	rows = Group(events, GroupSummary, time.UTC)
	require.Len(t, rows, 2)
	assert.Equal(t, "undated", rows[0].Summary)
	assert.False(t, rows[0].HasStart())
	assert.InDelta(t, 0, rows[0].TotalHours, 1e-9)
}

func TestGroupSummaryKeyIsExact(t *testing.T) {
	events := []model.Event{
		{Summary: "Standup"},
		{Summary: "standup"},
		{Summary: "Standup"},
	}

	rows := Group(events, GroupSummary, time.UTC)

	assert.Len(t, rows, 2)
}
