package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"icalyse/internal/model"
	"icalyse/internal/pipeline"
)

// CSVContentType is the media type written by WriteCSV.
const CSVContentType = "text/csv"

// CSVFilename returns the attachment name for an export made at now.
func CSVFilename(now time.Time) string {
	return "calendar-export-" + now.Format("2006-01-02") + ".csv"
}

// WriteCSV writes one row per event followed by a TOTAL row built from the
// run statistics. The Amount column is present only when the run produced a
// non-zero total amount. Timestamps are formatted in loc.
func WriteCSV(w io.Writer, res pipeline.Result, loc *time.Location) error {
	withAmount := res.Stats.TotalAmount != nil && *res.Stats.TotalAmount != 0

	header := []string{"Summary", "Start", "End", "Total Hours"}
	if withAmount {
		header = append(header, "Amount")
	}

	lines := make([]string, 0, len(res.Events)+2)
	lines = append(lines, strings.Join(header, ","))

	for _, ev := range res.Events {
		row := []string{
			csvEscape(ev.Summary),
			csvEscape(model.FormatDateTime(ev.Start, loc)),
			csvEscape(model.FormatDateTime(ev.End, loc)),
			formatFixed(ev.TotalHours),
		}
		if withAmount {
			amount := ""
			if ev.Amount != nil {
				amount = formatFixed(*ev.Amount)
			}
			row = append(row, amount)
		}
		lines = append(lines, strings.Join(row, ","))
	}

	total := []string{
		"TOTAL",
		csvEscape(res.Stats.EarliestStart),
		csvEscape(res.Stats.LatestEnd),
		formatFixed(res.Stats.TotalHours),
	}
	if withAmount {
		total = append(total, formatFixed(*res.Stats.TotalAmount))
	}
	lines = append(lines, strings.Join(total, ","))

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatFixed(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// csvEscape wraps a field in quotes if it contains a comma, quote, CR or LF.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
