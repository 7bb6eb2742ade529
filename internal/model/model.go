package model

import (
	"fmt"
	"math"
	"time"
)

// Event represents a single calendar occurrence after normalization.
// Empty strings mean the property was absent in the source feed, and a zero
// Start/End means the timestamp was missing or unparseable.
type Event struct {
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// HasStart reports whether the event carries a DTSTART.
func (e Event) HasStart() bool { return !e.Start.IsZero() }

// HasEnd reports whether the event carries a DTEND.
func (e Event) HasEnd() bool { return !e.End.IsZero() }

// Calendar is the canonical calendar produced from one or more feeds.
type Calendar struct {
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	Events      []Event `json:"events"`
}

// AugmentedEvent is an Event (or an aggregate bucket of events) carrying its
// duration and, once a rate has been applied, its monetary amount.
type AugmentedEvent struct {
	Event

	TotalHours float64  `json:"totalHours"`
	Amount     *float64 `json:"amount,omitempty"`
}

// Stats summarizes a processed event list.
type Stats struct {
	TotalEventsCount    int      `json:"totalEventsCount"`
	FilteredEventsCount int      `json:"filteredEventsCount"`
	TotalHours          float64  `json:"totalHours"`
	TotalAmount         *float64 `json:"totalAmount,omitempty"`
	EarliestStart       string   `json:"earliestStart,omitempty"`
	LatestEnd           string   `json:"latestEnd,omitempty"`
}

// DateTimeLayout is the "yyyy-MM-dd HH:mm" layout used by stats and CSV.
const DateTimeLayout = "2006-01-02 15:04"

// epoch is the fallback for missing endpoints in duration arithmetic.
var epoch = time.Unix(0, 0).UTC()

// OrEpoch returns t, or the Unix epoch when t is the zero time.
func OrEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return epoch
	}
	return t
}

// HoursBetween returns the fractional number of hours from start to end,
// computed on whole seconds. Missing endpoints count as the Unix epoch, and
// the result is negative when end precedes start.
func HoursBetween(start, end time.Time) float64 {
	secs := OrEpoch(end).Unix() - OrEpoch(start).Unix()
	return float64(secs) / 3600
}

// Hours returns the duration of the event in hours.
func (e Event) Hours() float64 {
	return HoursBetween(e.Start, e.End)
}

// FormatHours renders a number of hours as "2h30", or "2h" for whole hours.
func FormatHours(h float64) string {
	totalMinutes := int64(math.Trunc(h * 60))
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	if minutes < 0 {
		minutes = -minutes
	}
	return fmt.Sprintf("%dh%d", hours, minutes)
}

// FormatDateTime formats t in loc with DateTimeLayout, or returns "" for the
// zero time.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateTimeLayout)
}
