package pipeline

import (
	"time"

	"icalyse/internal/model"
)

const dateLayout = "2006-01-02"

// dateBound is a from/to query bound. An unset bound matches everything; an
// invalid one (present but unparseable) never compares true.
type dateBound struct {
	set     bool
	invalid bool
	t       time.Time
}

// parseDateBound reads a YYYY-MM-DD (or RFC 3339) value as the start or the
// end of that day in loc.
func parseDateBound(p *string, loc *time.Location, endOfDay bool) dateBound {
	if p == nil {
		return dateBound{}
	}

	day, err := time.ParseInLocation(dateLayout, *p, loc)
	if err != nil {
		ts, rfcErr := time.Parse(time.RFC3339, *p)
		if rfcErr != nil {
			return dateBound{set: true, invalid: true}
		}
		ts = ts.In(loc)
		day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	}

	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return dateBound{set: true, t: day}
}

// Filter applies the date range and summary search predicates of a query.
type Filter struct {
	from   dateBound
	to     dateBound
	search *searchExpr
}

// NewFilter compiles the predicates of q. Dates are interpreted in loc.
func NewFilter(q model.Query, loc *time.Location) Filter {
	if loc == nil {
		loc = time.Local
	}
	f := Filter{
		from: parseDateBound(q.From, loc, false),
		to:   parseDateBound(q.To, loc, true),
	}
	if q.Summary != nil {
		f.search = compileSearch(*q.Summary)
	}
	return f
}

func (f Filter) matchesFrom(ev model.Event) bool {
	if !f.from.set || !ev.HasStart() {
		return true
	}
	if f.from.invalid {
		return false
	}
	return !ev.Start.Before(f.from.t)
}

func (f Filter) matchesTo(ev model.Event) bool {
	if !f.to.set || !ev.HasEnd() {
		return true
	}
	if f.to.invalid {
		return false
	}
	return !ev.End.After(f.to.t)
}

func (f Filter) matchesSummary(ev model.Event) bool {
	if f.search == nil {
		return true
	}
	return f.search.match(ev.Summary)
}

// Match reports whether ev satisfies every predicate.
func (f Filter) Match(ev model.Event) bool {
	return f.matchesFrom(ev) && f.matchesTo(ev) && f.matchesSummary(ev)
}

// Apply returns the matching events in their original order.
func (f Filter) Apply(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}
