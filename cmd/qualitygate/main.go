// Package main provides the entry point for the abstract quality gate job.
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
	"github.com/openknowledge-labs/docharvest/internal/domain"
	"github.com/openknowledge-labs/docharvest/internal/nlp"
	"github.com/openknowledge-labs/docharvest/internal/observability"
	"github.com/openknowledge-labs/docharvest/internal/quality"
	"github.com/openknowledge-labs/docharvest/internal/semantics"
)

// progressInterval controls how often the evaluation loop logs progress.
const progressInterval = 500

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
	logger = observability.WithStageContext(logger, "qualitygate")
	logger.Info().
		Str("input", cfg.Quality.InputPath).
		Bool("check_semantics", cfg.Quality.CheckSemantics).
		Msg("docharvest quality gate starting")

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
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("metrics server shutdown error")
			}
		}()
	}

	records, err := corpus.ReadRecords(cfg.Quality.InputPath)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("corpus %s: %w", cfg.Quality.InputPath, domain.ErrEmptyCorpus)
	}
	logger.Info().Int("records", len(records)).Msg("corpus loaded")

	// The semantic coherence scorer is only wired when enabled; every
	// other check runs locally.
	var scorer quality.CoherenceScorer
	if cfg.Quality.CheckSemantics {
		embedder := semantics.NewHTTPEmbedder(semantics.EmbedderConfig{
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Timeout:    cfg.Embedding.Timeout,
			MaxRetries: cfg.Embedding.MaxRetries,
			RetryDelay: cfg.Embedding.RetryDelay,
		})
		scorer = semantics.NewScorer(embedder)
	}

	gate := quality.NewGate(nlp.NewAnalyzer(), nlp.NewStopwordLexicon(), scorer, quality.Options{
		TTRThreshold:      cfg.Quality.TTRThreshold,
		MTLDThreshold:     cfg.Quality.MTLDThreshold,
		StopwordThreshold: cfg.Quality.StopwordThreshold,
		MinSentences:      cfg.Quality.MinSentences,
		MinCoherence:      cfg.Quality.MinCoherence,
		CheckSemantics:    cfg.Quality.CheckSemantics,
	})

	start := time.Now()
	verdicts := make([]domain.Verdict, len(records))
	var accepted int
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("quality gate interrupted: %w", err)
		}

		verdict, err := gate.Evaluate(ctx, record.Abstract)
		if err != nil {
			return fmt.Errorf("evaluate record %s: %w", record.ID, err)
		}
		verdicts[i] = verdict

		if metrics != nil {
			metrics.AbstractsChecked.Inc()
			if verdict.Valid {
				metrics.AbstractsAccepted.Inc()
			} else {
				metrics.AbstractsRejected.WithLabelValues(string(verdict.Failed)).Inc()
			}
		}
		if verdict.Valid {
			accepted++
		}

		if (i+1)%progressInterval == 0 {
			logger.Info().
				Int("checked", i+1).
				Int("total", len(records)).
				Int("accepted", accepted).
				Msg("quality gate progress")
		}
	}

	if err := corpus.WriteChecked(cfg.Quality.CheckedPath, records, verdicts); err != nil {
		return fmt.Errorf("write checked corpus: %w", err)
	}

	filtered := make([]domain.FlatRecord, 0, accepted)
	for i, record := range records {
		if verdicts[i].Valid {
			filtered = append(filtered, record)
		}
	}
	if err := corpus.WriteRecords(cfg.Quality.FilteredPath, filtered); err != nil {
		return fmt.Errorf("write filtered corpus: %w", err)
	}

	logger.Info().
		Int("checked", len(records)).
		Int("accepted", accepted).
		Int("rejected", len(records)-accepted).
		Dur("elapsed", time.Since(start)).
		Str("checked_path", cfg.Quality.CheckedPath).
		Str("filtered_path", cfg.Quality.FilteredPath).
		Msg("quality gate finished")
	return nil
}
