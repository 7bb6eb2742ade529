package pipeline

import (
	"time"

	"icalyse/internal/model"
)

// Summarize computes run statistics over the final rows. totalAmount is
// reported (possibly as 0) whenever annotated is true. Earliest start and
// latest end keep the first row reaching the extreme.
func Summarize(total, filtered int, events []model.AugmentedEvent, annotated bool, loc *time.Location) model.Stats {
	st := model.Stats{
		TotalEventsCount:    total,
		FilteredEventsCount: filtered,
	}

	var amount float64
	var earliest, latest time.Time
	for _, ev := range events {
		st.TotalHours += ev.TotalHours
		if ev.Amount != nil {
			amount += *ev.Amount
		}
		if ev.HasStart() && (earliest.IsZero() || ev.Start.Before(earliest)) {
			earliest = ev.Start
		}
		if ev.HasEnd() && (latest.IsZero() || ev.End.After(latest)) {
			latest = ev.End
		}
	}

	if annotated {
		st.TotalAmount = &amount
	}
	st.EarliestStart = model.FormatDateTime(earliest, loc)
	st.LatestEnd = model.FormatDateTime(latest, loc)
	return st
}
