package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"icalyse/internal/model"
)

// Normalize converts a parsed calendar into the canonical model.
//
// Calendar metadata comes from the X-WR-CALNAME, X-WR-CALDESC and
// X-WR-TIMEZONE properties. Every VEVENT yields one Event; absent or
// unparseable properties leave the corresponding field empty. Normalize never
// fails.
//
// Floating timestamps (no TZID, no trailing Z) and all-day dates are read as
// wall-clock values in the feed's X-WR-TIMEZONE when it names a known zone,
// otherwise in fallback.
func Normalize(cal *ical.Calendar, fallback *time.Location) model.Calendar {
	out := model.Calendar{Events: []model.Event{}}
	if cal == nil {
		return out
	}

	out.Name = calendarProperty(cal, ical.PropertyXWRCalName)
	out.Description = calendarProperty(cal, ical.PropertyXWRCalDesc)
	out.Timezone = calendarProperty(cal, ical.PropertyXWRTimezone)

	floating := fallback
	if floating == nil {
		floating = time.Local
	}
	if out.Timezone != "" {
		if loc, err := time.LoadLocation(out.Timezone); err == nil {
			floating = loc
		}
	}

	for _, ve := range cal.Events() {
		out.Events = append(out.Events, normalizeEvent(ve, floating))
	}
	return out
}

func normalizeEvent(ve *ical.VEvent, floating *time.Location) model.Event {
	var ev model.Event

	ev.Summary = propertyValue(ve, ical.ComponentPropertySummary)
	ev.Description = propertyValue(ve, ical.ComponentPropertyDescription)
	ev.Location = propertyValue(ve, ical.ComponentPropertyLocation)

	if t, err := ve.GetStartAt(); err == nil {
		ev.Start = inFloating(ve.GetProperty(ical.ComponentPropertyDtStart), t, floating)
	}
	if t, err := ve.GetEndAt(); err == nil {
		ev.End = inFloating(ve.GetProperty(ical.ComponentPropertyDtEnd), t, floating)
	}
	return ev
}

// calendarProperty returns the first value of a top-level property, or "".
func calendarProperty(cal *ical.Calendar, p ical.Property) string {
	for _, cp := range cal.CalendarProperties {
		if strings.EqualFold(cp.IANAToken, string(p)) {
			return cp.Value
		}
	}
	return ""
}

func propertyValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// inFloating re-anchors a zone-less timestamp to loc, keeping its wall clock.
// UTC values and values carrying a TZID are returned unchanged.
func inFloating(prop *ical.IANAProperty, t time.Time, loc *time.Location) time.Time {
	if prop == nil {
		return t
	}
	if strings.HasSuffix(strings.TrimSpace(prop.Value), "Z") {
		return t
	}
	if tz, ok := prop.ICalParameters["TZID"]; ok && len(tz) > 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
