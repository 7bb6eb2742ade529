package ics

import (
	ical "github.com/arran4/golang-ical"
)

// ProductID is the PRODID written on every calendar this service emits.
const ProductID = "-//iCal Export//EN"

// MergeRaw builds one calendar holding every VEVENT of cals verbatim, in
// source order. VTIMEZONE definitions are carried over once per TZID so that
// TZID references in the merged events stay resolvable.
func MergeRaw(cals []*ical.Calendar) *ical.Calendar {
	merged := ical.NewCalendar()
	merged.SetProductId(ProductID)

	seenTZ := make(map[string]struct{})
	for _, cal := range cals {
		if cal == nil {
			continue
		}
		for _, comp := range cal.Components {
			tz, ok := comp.(*ical.VTimezone)
			if !ok {
				continue
			}
			id := ""
			if p := tz.GetProperty(ical.ComponentPropertyTzid); p != nil {
				id = p.Value
			}
			if _, dup := seenTZ[id]; dup {
				continue
			}
			seenTZ[id] = struct{}{}
			merged.Components = append(merged.Components, tz)
		}
	}

	for _, cal := range cals {
		if cal == nil {
			continue
		}
		for _, ev := range cal.Events() {
			merged.AddVEvent(ev)
		}
	}
	return merged
}
