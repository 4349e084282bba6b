package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"GemSentinel/internal/api"
	"GemSentinel/internal/api/handlers"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serves analyses, instrument search, the watchlist, run history and Prometheus metrics over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "Listen port (overrides api.port / API_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	a.openRecorder()
	defer a.Close()

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Analysis:  handlers.NewAnalysisHandler(a.service, a.recorder, a.watchlist, a.request),
		Watchlist: handlers.NewWatchlistHandler(a.watchlist),
		Catalog: &handlers.CatalogHandler{
			Searcher:    a.yahoo,
			Recorder:    a.recorder,
			Instruments: a.cfg.InstrumentList(),
			Safe:        a.request.Instruments.Safe,
			Benchmark:   a.request.Benchmark,
		},
		Metrics:        a.metrics,
		AllowedOrigins: a.cfg.API.AllowedOrigins,
	})

	port := a.cfg.API.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
