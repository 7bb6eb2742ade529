package pipeline

import (
	"time"

	"icalyse/internal/model"
)

// GroupMode selects how events are aggregated.
type GroupMode string

const (
	GroupNone    GroupMode = ""
	GroupMonth   GroupMode = "month"
	GroupSummary GroupMode = "summary"
)

// ParseGroupMode maps the "grouped" query parameter to a GroupMode. Absent or
// unknown values disable grouping.
func ParseGroupMode(p *string) GroupMode {
	if p == nil {
		return GroupNone
	}
	switch GroupMode(*p) {
	case GroupMonth:
		return GroupMonth
	case GroupSummary:
		return GroupSummary
	default:
		return GroupNone
	}
}

// bucketSet is an insertion-ordered map of aggregate buckets.
type bucketSet struct {
	index   map[string]int
	buckets []model.AugmentedEvent
}

func newBucketSet(capacity int) *bucketSet {
	return &bucketSet{
		index:   make(map[string]int, capacity),
		buckets: make([]model.AugmentedEvent, 0, capacity),
	}
}

// add merges ev into the bucket for key, seeding it with seed on first use.
func (b *bucketSet) add(key string, ev model.Event, seed func() model.AugmentedEvent) {
	i, ok := b.index[key]
	if !ok {
		i = len(b.buckets)
		b.index[key] = i
		b.buckets = append(b.buckets, seed())
	}

	bucket := &b.buckets[i]
	if model.OrEpoch(ev.Start).Before(model.OrEpoch(bucket.Start)) {
		bucket.Start = ev.Start
	}
	if model.OrEpoch(ev.End).After(model.OrEpoch(bucket.End)) {
		bucket.End = ev.End
	}
	bucket.TotalHours += ev.Hours()
	// An aggregate spans several places, so it has none.
	bucket.Location = ""
}

// Group turns events into augmented rows. With GroupNone every event becomes
// one row; otherwise events sharing a key collapse into one bucket whose span
// covers all of them and whose hours are their sum. Buckets keep the order in
// which their keys first appear. Month keys are computed in loc.
func Group(events []model.Event, mode GroupMode, loc *time.Location) []model.AugmentedEvent {
	if loc == nil {
		loc = time.Local
	}

	switch mode {
	case GroupMonth, GroupSummary:
	default:
		out := make([]model.AugmentedEvent, 0, len(events))
		for _, ev := range events {
			out = append(out, model.AugmentedEvent{Event: ev, TotalHours: ev.Hours()})
		}
		return out
	}

	set := newBucketSet(len(events))
	for _, ev := range events {
		key := ev.Summary
		label := ev.Summary
		if mode == GroupMonth {
			// Undated events land in the epoch month whatever the zone.
			start := model.OrEpoch(ev.Start).UTC()
			if ev.HasStart() {
				start = ev.Start.In(loc)
			}
			key = start.Format("2006-01")
			label = start.Format("January 2006")
		}
		set.add(key, ev, func() model.AugmentedEvent {
			seeded := ev
			seeded.Summary = label
			return model.AugmentedEvent{Event: seeded}
		})
	}
	return set.buckets
}
