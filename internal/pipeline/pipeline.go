// Package pipeline turns normalized calendars into the filtered, sorted,
// grouped and costed event list served by the export endpoints.
package pipeline

import (
	"context"
	"time"

	appLog "icalyse/internal/log"
	"icalyse/internal/metrics"
	"icalyse/internal/model"
)

// Result is the response object of one run.
type Result struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Timezone    string                 `json:"timezone"`
	Events      []model.AugmentedEvent `json:"events"`
	Stats       model.Stats            `json:"stats"`
	Query       model.Query            `json:"query"`
}

// Options configures how a Pipeline interprets dates and orders summaries.
type Options struct {
	// Location is used for from/to bounds, month buckets and formatted
	// timestamps. Nil means time.Local.
	Location *time.Location
	// Locale is the BCP 47 tag for summary collation.
	Locale string
}

// Pipeline runs queries against a CalendarLoader.
type Pipeline struct {
	loader CalendarLoader
	loc    *time.Location
	sorter Sorter
}

// New creates a Pipeline.
func New(loader CalendarLoader, opts Options) *Pipeline {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Pipeline{
		loader: loader,
		loc:    loc,
		sorter: NewSorter(opts.Locale),
	}
}

// Location returns the zone the pipeline formats timestamps in.
func (p *Pipeline) Location() *time.Location { return p.loc }

// Run loads every source of q, merges them and processes the result.
func (p *Pipeline) Run(ctx context.Context, q model.Query) (Result, error) {
	cals, err := LoadAll(ctx, p.loader, q.URLs)
	if err != nil {
		return Result{}, err
	}
	return p.Process(Merge(cals), q), nil
}

// Process applies filter, sort, grouping, costing and statistics to an
// already merged calendar.
func (p *Pipeline) Process(cal model.Calendar, q model.Query) Result {
	filtered := NewFilter(q, p.loc).Apply(cal.Events)
	sorted := p.sorter.Sort(filtered, ParseSortKey(q.Sort))
	rows := Group(sorted, ParseGroupMode(q.Grouped), p.loc)
	rows, annotated := Annotate(rows, ParseRate(q.HourlyRate))

	stats := Summarize(len(cal.Events), len(filtered), rows, annotated, p.loc)
	metrics.RecordPipeline(len(cal.Events), len(filtered), len(rows))
	appLog.Debug("pipeline run",
		"sources", len(q.URLs),
		"total", len(cal.Events),
		"filtered", len(filtered),
		"rows", len(rows),
		"annotated", annotated,
	)

	return Result{
		Name:        cal.Name,
		Description: cal.Description,
		Timezone:    cal.Timezone,
		Events:      rows,
		Stats:       stats,
		Query:       q,
	}
}
