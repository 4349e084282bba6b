package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/collector"
	"GemSentinel/internal/config"
	"GemSentinel/internal/metrics"
	"GemSentinel/internal/recorder"
	"GemSentinel/internal/watchlist"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Registry
	yahoo     *collector.YahooFetcher
	service   *analysis.Service
	recorder  recorder.Recorder
	watchlist *watchlist.Manager
	request   analysis.Request
}

// newApp loads and validates the config and wires the components.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	req, err := analysis.RequestFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: metrics.New(), request: req}

	// Yahoo serves search in every mode and prices unless a CSV directory is configured.
	a.yahoo = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	a.yahoo.Metrics = a.metrics
	var fetcher collector.Fetcher = a.yahoo
	if cfg.DataSource.Provider == "csv" {
		fetcher = collector.NewCSVFetcher(cfg.DataSource.CSVDir)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source")
	a.service = analysis.NewService(collector.NewCollector(fetcher), a.metrics, cfg.DataSource.CacheTTL)

	a.watchlist, err = watchlist.NewManager(cfg.Watchlist.StateFile, req.Instruments.Risky)
	if err != nil {
		return nil, fmt.Errorf("init watchlist: %w", err)
	}
	return a, nil
}

// openRecorder opens SQLite, falling back to a noop recorder.
func (a *app) openRecorder() {
	if a.cfg.Database.SQLitePath == "" {
		a.recorder = recorder.NewNoopRecorder()
		return
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		a.recorder = recorder.NewNoopRecorder()
		return
	}
	a.recorder = sr
}

func (a *app) Close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("close recorder")
		}
	}
}
