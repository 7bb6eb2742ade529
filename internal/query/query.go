// Package query converts between URL query strings and model.Query.
package query

import (
	"net/url"

	"icalyse/internal/model"
)

// Parameter names accepted on every export endpoint.
const (
	KeyURLs       = "urls"
	KeyURL        = "url"
	KeyFrom       = "from"
	KeyTo         = "to"
	KeySummary    = "summary"
	KeySort       = "sort"
	KeyGrouped    = "grouped"
	KeyHourlyRate = "hourlyRate"
)

// Parse extracts a Query from URL values.
//
// Source URLs come from the repeatable "urls" key, falling back to the legacy
// single "url" key when no "urls" are present. Duplicates and empty entries
// are dropped while preserving first-seen order.
//
// Empty single-valued parameters are treated as absent, except "summary":
// a present-but-empty search expression is kept so the filter can apply its
// literal-term branch.
func Parse(values url.Values) model.Query {
	raw := values[KeyURLs]
	if len(raw) == 0 {
		raw = values[KeyURL]
	}

	q := model.Query{
		URLs:       uniq(raw),
		From:       nonEmpty(values, KeyFrom),
		To:         nonEmpty(values, KeyTo),
		Sort:       nonEmpty(values, KeySort),
		Grouped:    nonEmpty(values, KeyGrouped),
		HourlyRate: nonEmpty(values, KeyHourlyRate),
	}
	if values.Has(KeySummary) {
		q.Summary = model.Str(values.Get(KeySummary))
	}
	return q
}

// Encode builds the canonical URL values for q. Parse(Encode(q)) yields q
// for any q produced by Parse.
func Encode(q model.Query) url.Values {
	v := url.Values{}
	for _, u := range uniq(q.URLs) {
		v.Add(KeyURLs, u)
	}
	set := func(key string, p *string) {
		if p != nil && *p != "" {
			v.Set(key, *p)
		}
	}
	set(KeyFrom, q.From)
	set(KeyTo, q.To)
	if q.Summary != nil {
		v.Set(KeySummary, *q.Summary)
	}
	set(KeySort, q.Sort)
	set(KeyGrouped, q.Grouped)
	set(KeyHourlyRate, q.HourlyRate)
	return v
}

// Clean normalizes a raw query string into its canonical form.
func Clean(raw string) (string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", err
	}
	return Encode(Parse(values)).Encode(), nil
}

func nonEmpty(values url.Values, key string) *string {
	s := values.Get(key)
	if s == "" {
		return nil
	}
	return &s
}

func uniq(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
