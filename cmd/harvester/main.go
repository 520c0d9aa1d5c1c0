// Package main provides the entry point for the corpus harvest job.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openknowledge-labs/docharvest/internal/config"
	"github.com/openknowledge-labs/docharvest/internal/corpus"
	"github.com/openknowledge-labs/docharvest/internal/docsource/wds"
	"github.com/openknowledge-labs/docharvest/internal/harvest"
	"github.com/openknowledge-labs/docharvest/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = observability.WithStageContext(logger, "harvester")
	logger.Info().
		Int("queries", len(cfg.Harvest.Queries)).
		Bool("resume", cfg.Harvest.Resume).
		Msg("docharvest harvester starting")

	if len(cfg.Harvest.Queries) == 0 {
		return errors.New("no harvest queries configured")
	}

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up Prometheus metrics on a separate port if configured.
	var metrics *observability.Metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("docharvest")
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	// Output files. A fresh run discards everything a previous run left
	// behind; a resume run keeps the ledger and appends to the corpus.
	store := corpus.NewStore(cfg.Harvest.CorpusPath)
	archive := corpus.NewRawArchive(cfg.Harvest.ArchivePath)
	if !cfg.Harvest.Resume {
		if err := os.Remove(cfg.Harvest.LedgerPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove ledger: %w", err)
		}
		if err := store.Truncate(); err != nil {
			return fmt.Errorf("truncate corpus: %w", err)
		}
		if err := archive.Reset(); err != nil {
			return fmt.Errorf("reset raw archive: %w", err)
		}
		logger.Info().Msg("starting fresh harvest, previous outputs discarded")
	}

	ledger := harvest.NewFileLedger(cfg.Harvest.LedgerPath, logger)
	if done := ledger.Completed(); len(done) > 0 {
		logger.Info().
			Int("completed_queries", len(done)).
			Msg("resuming from existing ledger")
	}

	// WDS search API client. Transport retries feed the retry counter
	// when metrics are enabled.
	var onRetry func(error)
	if metrics != nil {
		onRetry = func(error) { metrics.FetchRetries.Inc() }
	}
	client := wds.New(wds.Config{
		BaseURL:     cfg.Source.BaseURL,
		Language:    cfg.Source.Language,
		Fields:      cfg.Source.Fields,
		StartDate:   cfg.Source.StartDate,
		EndDate:     cfg.Source.EndDate,
		Timeout:     cfg.Source.Timeout,
		RateLimit:   cfg.Source.RateLimit,
		MaxAttempts: cfg.Source.MaxRetries,
		RetryDelay:  cfg.Source.RetryDelay,
		UserAgent:   cfg.Source.UserAgent,
		OnRetry:     onRetry,
	})

	var fetcher harvest.PageFetcher = client
	if metrics != nil {
		fetcher = &harvest.InstrumentedFetcher{Fetcher: client, Metrics: metrics}
	}

	harvester := harvest.NewHarvester(fetcher, wds.Normalize, harvest.HarvesterConfig{
		PageSize:      cfg.Harvest.PageSize,
		MaxRecords:    cfg.Harvest.MaxRecords,
		CourtesyDelay: cfg.Harvest.CourtesyDelay,
	}, logger)

	runner := harvest.NewRunner(harvester, ledger, store, archive, metrics, logger)

	start := time.Now()
	runErr := runner.Run(ctx, cfg.Harvest.Queries)

	// Shut down metrics server if running.
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	if runErr != nil {
		return fmt.Errorf("harvest run: %w", runErr)
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Str("corpus", store.Path()).
		Msg("harvest run finished")
	return nil
}
