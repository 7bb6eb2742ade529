package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"icalyse/internal/config"
	"icalyse/internal/export"
	"icalyse/internal/ics"
	appLog "icalyse/internal/log"
	"icalyse/internal/model"
	"icalyse/internal/pipeline"
	"icalyse/internal/query"
)

var (
	exportURLs       []string
	exportFrom       string
	exportTo         string
	exportSummary    string
	exportSort       string
	exportGrouped    string
	exportHourlyRate string
	exportFormat     string
	exportOutput     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one query and write the result",
	Example: `  icalyse export --url https://example.com/work.ics --from 2024-01-01 --to 2024-01-31 \
    --summary "team -sync" --grouped summary --hourly-rate 80 --format csv --output jan.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringArrayVar(&exportURLs, "url", nil, "Calendar feed URL (repeatable)")
	f.StringVar(&exportFrom, "from", "", "Keep events starting on or after this date (YYYY-MM-DD)")
	f.StringVar(&exportTo, "to", "", "Keep events ending on or before this date (YYYY-MM-DD)")
	f.StringVar(&exportSummary, "summary", "", `Search expression, e.g. "team -sync,review"`)
	f.StringVar(&exportSort, "sort", "", "Sort key: date-asc, date-desc, summary-asc, summary-desc")
	f.StringVar(&exportGrouped, "grouped", "", "Group events: month or summary")
	f.StringVar(&exportHourlyRate, "hourly-rate", "", "Hourly rate used to compute amounts")
	f.StringVar(&exportFormat, "format", "json", "Output format: json, csv, ics, text")
	f.StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	var (
		conf *config.Config
		err  error
	)
	if configPath != "" {
		conf, err = config.Load(configPath)
	} else {
		conf, err = config.FromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	q := query.Parse(exportValues(cmd))
	loc := conf.Location()
	p := pipeline.New(ics.NewClient(conf.Fetch, nil, loc), pipeline.Options{
		Location: loc,
		Locale:   conf.Locale,
	})

	res, err := p.Run(cmd.Context(), q)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeResult(w, exportFormat, res, loc, time.Now()); err != nil {
		return err
	}
	if exportOutput != "" {
		appLog.Info("export written", "path", exportOutput, "format", exportFormat, "events", len(res.Events))
	}
	return nil
}

// exportValues maps the command flags onto the same query keys the HTTP
// endpoints accept. --summary is only forwarded when given, so an explicit
// empty search keeps its literal meaning.
func exportValues(cmd *cobra.Command) url.Values {
	v := url.Values{}
	for _, u := range exportURLs {
		v.Add(query.KeyURLs, u)
	}
	v.Set(query.KeyFrom, exportFrom)
	v.Set(query.KeyTo, exportTo)
	if cmd.Flags().Changed("summary") {
		v.Set(query.KeySummary, exportSummary)
	}
	v.Set(query.KeySort, exportSort)
	v.Set(query.KeyGrouped, exportGrouped)
	v.Set(query.KeyHourlyRate, exportHourlyRate)
	return v
}

func writeResult(w io.Writer, format string, res pipeline.Result, loc *time.Location, now time.Time) error {
	switch format {
	case "json":
		return export.WriteJSON(w, res)
	case "csv":
		if err := export.WriteCSV(w, res, loc); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case "ics":
		return export.WriteCalendar(w, res, now)
	case "text":
		return writeText(w, res, loc)
	default:
		return fmt.Errorf("unknown format %q (want json, csv, ics or text)", format)
	}
}

// writeText renders a human-readable table with durations as "2h30".
func writeText(w io.Writer, res pipeline.Result, loc *time.Location) error {
	if res.Name != "" {
		if _, err := fmt.Fprintln(w, res.Name); err != nil {
			return err
		}
	}

	withAmount := res.Stats.TotalAmount != nil
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "START\tEND\tHOURS\t"
	if withAmount {
		header += "AMOUNT\t"
	}
	fmt.Fprintln(tw, header+"SUMMARY")

	for _, ev := range res.Events {
		line := fmt.Sprintf("%s\t%s\t%s\t",
			model.FormatDateTime(ev.Start, loc),
			model.FormatDateTime(ev.End, loc),
			model.FormatHours(ev.TotalHours),
		)
		if withAmount {
			line += formatAmount(ev.Amount) + "\t"
		}
		fmt.Fprintln(tw, line+ev.Summary)
	}

	total := fmt.Sprintf("%s\t%s\t%s\t",
		res.Stats.EarliestStart,
		res.Stats.LatestEnd,
		model.FormatHours(res.Stats.TotalHours),
	)
	if withAmount {
		total += formatAmount(res.Stats.TotalAmount) + "\t"
	}
	fmt.Fprintf(tw, "%sTOTAL (%d of %d events)\n", total, res.Stats.FilteredEventsCount, res.Stats.TotalEventsCount)

	return tw.Flush()
}

func formatAmount(a *float64) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *a)
}
