package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"icalyse/internal/model"
)

// CalendarLoader fetches one calendar source and returns it normalized.
type CalendarLoader interface {
	LoadCalendar(ctx context.Context, url string) (model.Calendar, error)
}

// LoadAll loads every source concurrently. Results keep the order of urls.
// The first failure cancels the remaining loads and is returned as a
// *SourceUnavailableError; there is no partial result.
func LoadAll(ctx context.Context, loader CalendarLoader, urls []string) ([]model.Calendar, error) {
	if len(urls) == 0 {
		return nil, ErrMissingInput
	}

	cals := make([]model.Calendar, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			cal, err := loader.LoadCalendar(gctx, u)
			if err != nil {
				return &SourceUnavailableError{URL: u, Err: err}
			}
			cals[i] = cal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cals, nil
}

// Merge combines calendars into one. Events are concatenated in source order
// without de-duplication. With several sources the present names are joined
// with " & "; description and timezone always come from the first source.
func Merge(cals []model.Calendar) model.Calendar {
	out := model.Calendar{Events: []model.Event{}}
	if len(cals) == 0 {
		return out
	}

	out.Description = cals[0].Description
	out.Timezone = cals[0].Timezone

	if len(cals) == 1 {
		out.Name = cals[0].Name
	} else {
		names := make([]string, 0, len(cals))
		for _, c := range cals {
			if c.Name != "" {
				names = append(names, c.Name)
			}
		}
		out.Name = strings.Join(names, " & ")
	}

	for _, c := range cals {
		out.Events = append(out.Events, c.Events...)
	}
	return out
}
