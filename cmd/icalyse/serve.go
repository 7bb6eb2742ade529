package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"icalyse/internal/bookmarks"
	"icalyse/internal/config"
	"icalyse/internal/ics"
	appLog "icalyse/internal/log"
	"icalyse/internal/web"
)

const defaultConfigPath = "config.yaml"

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export endpoints over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = defaultConfigPath
	}

	conf, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return err
	}

	// CLI --listen overrides config file listen if provided.
	if serveListen != "" {
		conf.Listen = serveListen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("icalyse starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Location().String(),
		"locale", conf.Locale,
		"fetch_timeout", conf.Fetch.Timeout.String(),
		"max_body_bytes", conf.Fetch.MaxBodyBytes,
		"bookmarks_path", conf.BookmarksPath,
	)

	store, err := bookmarks.Open(conf.BookmarksPath)
	if err != nil {
		appLog.Error("failed to load bookmarks", err, "path", conf.BookmarksPath)
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	client := ics.NewClient(conf.Fetch, nil, conf.Location())
	if err := web.StartServer(ctx, conf, client, store); err != nil {
		appLog.Error("HTTP server failed", err)
		return err
	}
	appLog.Info("icalyse exiting")
	return nil
}
