// Package export encodes pipeline results as JSON, CSV and iCalendar.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"icalyse/internal/model"
	"icalyse/internal/pipeline"
)

// JSONContentType is the media type written by WriteJSON.
const JSONContentType = "application/json"

// WriteJSON writes res as a single JSON document. A nil event list is
// encoded as [] so clients never see null.
func WriteJSON(w io.Writer, res pipeline.Result) error {
	if res.Events == nil {
		res.Events = []model.AugmentedEvent{}
	}
	if res.Query.URLs == nil {
		res.Query.URLs = []string{}
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
