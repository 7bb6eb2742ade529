package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block.
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// sanitizeForSearch lowercases s and strips diacritics ("Réunion" -> "reunion").
func sanitizeForSearch(s string) string {
	lower := strings.ToLower(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}

// searchWords splits a sanitized haystack on whitespace and hyphens.
func searchWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
}

type termGroup struct {
	include []string
	exclude []string
}

// searchExpr is a compiled summary search expression.
//
// Syntax: comma separated OR-groups of space separated terms. A term starting
// with "-" excludes events having a word with that prefix.
type searchExpr struct {
	// literal is set for a present-but-empty expression, which only matches
	// events whose summary is itself empty.
	literal bool
	groups  []termGroup
}

func compileSearch(expr string) *searchExpr {
	if expr == "" {
		return &searchExpr{literal: true}
	}

	s := &searchExpr{}
	for _, rawGroup := range strings.Split(expr, ",") {
		var g termGroup
		for _, term := range strings.Split(sanitizeForSearch(rawGroup), " ") {
			if term == "" {
				continue
			}
			if excluded, ok := strings.CutPrefix(term, "-"); ok {
				if excluded != "" {
					g.exclude = append(g.exclude, excluded)
				}
				continue
			}
			g.include = append(g.include, term)
		}
		s.groups = append(s.groups, g)
	}
	return s
}

func (s *searchExpr) match(summary string) bool {
	haystack := sanitizeForSearch(summary)
	if s.literal {
		return haystack == ""
	}

	words := searchWords(haystack)
	for _, g := range s.groups {
		if g.match(words) {
			return true
		}
	}
	return false
}

func (g termGroup) match(words []string) bool {
	for _, term := range g.include {
		if !anyHasPrefix(words, term) {
			return false
		}
	}
	for _, term := range g.exclude {
		if anyHasPrefix(words, term) {
			return false
		}
	}
	return true
}

func anyHasPrefix(words []string, prefix string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}
