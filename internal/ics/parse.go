package ics

import (
	"bytes"
	"errors"
	"fmt"

	ical "github.com/arran4/golang-ical"
)

// ErrEmptyBody is returned by Parse for a blank payload.
var ErrEmptyBody = errors.New("empty ICS body")

// Parse parses a single ICS payload into golang-ical's component tree.
//
// Properties that appear between components (non-standard, but common in
// exported feeds) are accepted as calendar properties instead of failing the
// whole document.
func Parse(body []byte) (*ical.Calendar, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	cal, err := ical.ParseCalendarWithOptions(bytes.NewReader(body),
		ical.WithUnknownPropertyHandler(ical.AcceptUnknownPropertyHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid iCal data: %w", err)
	}
	return cal, nil
}
