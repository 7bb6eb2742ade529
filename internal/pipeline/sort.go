package pipeline

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"icalyse/internal/model"
)

// Sort fields and directions understood by ParseSortKey.
const (
	SortByDate    = "date"
	SortBySummary = "summary"
	SortAsc       = "asc"
	SortDesc      = "desc"
)

// SortKey is a parsed "field-direction" sort parameter.
type SortKey struct {
	Field     string
	Direction string
}

// DefaultSortKey is used when the query carries no sort parameter.
var DefaultSortKey = SortKey{Field: SortByDate, Direction: SortAsc}

// ParseSortKey parses "field-direction". Unknown values are kept as-is; Sort
// decides how to fall back.
func ParseSortKey(p *string) SortKey {
	if p == nil || *p == "" {
		return DefaultSortKey
	}
	field, direction, _ := strings.Cut(*p, "-")
	return SortKey{Field: field, Direction: direction}
}

// Sorter orders events with locale-aware summary collation.
type Sorter struct {
	tag language.Tag
}

// NewSorter creates a Sorter for the given BCP 47 locale. An unparseable
// locale falls back to English.
func NewSorter(locale string) Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Sorter{tag: tag}
}

// Sort returns a new slice ordered by key. The sort is stable. An unknown
// field leaves the input order untouched; an unknown direction sorts
// ascending.
func (s Sorter) Sort(events []model.Event, key SortKey) []model.Event {
	out := slices.Clone(events)
	if out == nil {
		out = []model.Event{}
	}

	var cmp func(a, b model.Event) int
	switch key.Field {
	case SortByDate:
		cmp = func(a, b model.Event) int {
			return model.OrEpoch(a.Start).Compare(model.OrEpoch(b.Start))
		}
	case SortBySummary:
		// Collators keep internal buffers, so each call gets its own.
		col := collate.New(s.tag)
		cmp = func(a, b model.Event) int {
			return col.CompareString(a.Summary, b.Summary)
		}
	default:
		// No-op comparator: keep the original relative order.
		return out
	}

	if key.Direction == SortDesc {
		asc := cmp
		cmp = func(a, b model.Event) int { return -asc(a, b) }
	}

	slices.SortStableFunc(out, cmp)
	return out
}
