// Package main provides the entry point for the stratified sampling job.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openknowledge-labs/docharvest/internal/config"
	"github.com/openknowledge-labs/docharvest/internal/corpus"
	"github.com/openknowledge-labs/docharvest/internal/domain"
	"github.com/openknowledge-labs/docharvest/internal/observability"
	"github.com/openknowledge-labs/docharvest/internal/sample"
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
	logger = observability.WithStageContext(logger, "sampler")
	logger.Info().
		Str("input", cfg.Sample.InputPath).
		Int64("seed", cfg.Sample.Seed).
		Msg("docharvest sampler starting")

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

	records, err := corpus.ReadRecords(cfg.Sample.InputPath)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	logger.Info().Int("records", len(records)).Msg("corpus loaded")

	// Records with a blank abstract carry nothing worth sampling, and the
	// optional language filter keeps the sample monolingual.
	kept := make([]domain.FlatRecord, 0, len(records))
	for _, record := range records {
		if strings.TrimSpace(record.Abstract) == "" {
			continue
		}
		if cfg.Sample.EnglishOnly && !strings.EqualFold(strings.TrimSpace(record.Language), "english") {
			continue
		}
		kept = append(kept, record)
	}
	if dropped := len(records) - len(kept); dropped > 0 {
		logger.Info().
			Int("dropped", dropped).
			Bool("english_only", cfg.Sample.EnglishOnly).
			Msg("records excluded before sampling")
	}

	sampler := sample.New(sample.Config{
		OutlierQuantile: cfg.Sample.OutlierQuantile,
		MaxPerGroup:     cfg.Sample.MaxPerGroup,
	})

	start := time.Now()
	sampled, err := sampler.Sample(kept, cfg.Sample.Seed)
	if err != nil {
		return fmt.Errorf("stratified sample: %w", err)
	}

	if metrics != nil {
		metrics.SampledRecords.Add(float64(len(sampled)))
	}

	if err := corpus.WriteRecords(cfg.Sample.OutputPath, sampled); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	logger.Info().
		Int("input_records", len(kept)).
		Int("sampled_records", len(sampled)).
		Dur("elapsed", time.Since(start)).
		Str("output", cfg.Sample.OutputPath).
		Msg("sampling finished")
	return nil
}
