package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "icalyse",
	Short: "Analyse, filter and export iCalendar feeds",
	Long: `icalyse fetches one or more ICS feeds and turns them into a filtered,
sorted, optionally grouped and costed event list, served over HTTP or
exported once from the command line as JSON, CSV, iCalendar or text.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (created with defaults if missing)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
