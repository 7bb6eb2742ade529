package export

import (
	"fmt"
	"io"
	"regexp"
	"time"

	ical "github.com/arran4/golang-ical"

	"icalyse/internal/ics"
	"icalyse/internal/pipeline"
)

// CalendarContentType is the media type written by WriteCalendar.
const CalendarContentType = "text/calendar; charset=utf-8"

// CalendarFilename is the attachment name used for iCalendar exports.
const CalendarFilename = "calendar.ics"

var whitespaceRun = regexp.MustCompile(`\s+`)

// BuildCalendar converts res into a fresh VCALENDAR. now is written as the
// DTSTAMP of every event.
func BuildCalendar(res pipeline.Result, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(ics.ProductID)
	if res.Name != "" {
		cal.SetXWRCalName(res.Name)
	}
	if res.Description != "" {
		cal.SetXWRCalDesc(res.Description)
	}
	if res.Timezone != "" {
		cal.SetXWRTimezone(res.Timezone)
	}

	for _, ev := range res.Events {
		vevent := cal.AddEvent(EventUID(ev.Start, ev.Summary))
		vevent.SetDtStampTime(now)
		vevent.SetSummary(ev.Summary)
		if ev.HasStart() {
			vevent.SetStartAt(ev.Start)
		}
		if ev.HasEnd() {
			vevent.SetEndAt(ev.End)
		}
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
	}
	return cal
}

// EventUID derives a stable UID from an event's start and summary.
func EventUID(start time.Time, summary string) string {
	stamp := ""
	if !start.IsZero() {
		stamp = start.Format(time.RFC3339)
	}
	return stamp + "-" + whitespaceRun.ReplaceAllString(summary, "-")
}

// WriteCalendar serializes res as an iCalendar document with CRLF line
// endings.
func WriteCalendar(w io.Writer, res pipeline.Result, now time.Time) error {
	if err := BuildCalendar(res, now).SerializeTo(w, ical.WithNewLineWindows); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}

// WriteRawCalendar serializes an already built calendar, such as the output
// of ics.MergeRaw, with CRLF line endings.
func WriteRawCalendar(w io.Writer, cal *ical.Calendar) error {
	if err := cal.SerializeTo(w, ical.WithNewLineWindows); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}
