package pipeline

import (
	"errors"
	"fmt"

	"icalyse/internal/ics"
)

// ErrMissingInput is returned when a query names no calendar source.
var ErrMissingInput = errors.New("no calendar URL provided")

// SourceUnavailableError reports a source that could not be fetched or
// parsed. It fails the whole run. The message carries the redacted URL only.
type SourceUnavailableError struct {
	URL string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("calendar source %q unavailable: %v", ics.RedactURL(e.URL), e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }
