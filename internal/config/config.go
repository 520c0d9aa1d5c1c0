// Package config provides configuration management for the corpus pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the corpus pipeline jobs.
type Config struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Source contains document-search API client settings.
	Source SourceConfig `mapstructure:"source"`
	// Harvest contains harvest job settings.
	Harvest HarvestConfig `mapstructure:"harvest"`
	// Quality contains quality gate thresholds and paths.
	Quality QualityConfig `mapstructure:"quality"`
	// Embedding contains embedding API settings for the semantic check.
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	// Sample contains stratified sampling settings.
	Sample SampleConfig `mapstructure:"sample"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Port is the metrics server port.
	Port int `mapstructure:"port"`
}

// SourceConfig holds document-search API client settings.
type SourceConfig struct {
	// BaseURL is the search API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Language restricts results to documents in this language.
	Language string `mapstructure:"language"`
	// Fields is the comma-separated field list requested per document.
	Fields string `mapstructure:"fields"`
	// StartDate is the lower disclosure-date bound (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`
	// EndDate is the upper disclosure-date bound (YYYY-MM-DD).
	EndDate string `mapstructure:"end_date"`
	// Timeout is the request timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the retry budget for transport-level failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the fixed backoff between retry attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// UserAgent is the User-Agent header sent with requests.
	UserAgent string `mapstructure:"user_agent"`
}

// HarvestConfig holds harvest job settings.
type HarvestConfig struct {
	// Queries is the list of taxonomy search terms to harvest.
	Queries []string `mapstructure:"queries"`
	// PageSize is the number of rows requested per page.
	PageSize int `mapstructure:"page_size"`
	// MaxRecords is the per-query record budget.
	MaxRecords int `mapstructure:"max_records"`
	// CourtesyDelay is the unconditional pause between page requests.
	CourtesyDelay time.Duration `mapstructure:"courtesy_delay"`
	// CorpusPath is the append-only corpus CSV file.
	CorpusPath string `mapstructure:"corpus_path"`
	// ArchivePath is the raw response JSON archive file.
	ArchivePath string `mapstructure:"archive_path"`
	// LedgerPath is the completed-query ledger file.
	LedgerPath string `mapstructure:"ledger_path"`
	// Resume keeps the existing ledger and outputs so an interrupted run
	// picks up where it left off. When false the job starts fresh.
	Resume bool `mapstructure:"resume"`
}

// QualityConfig holds quality gate thresholds and file paths.
type QualityConfig struct {
	// TTRThreshold is the type-token ratio floor.
	TTRThreshold float64 `mapstructure:"ttr_threshold"`
	// MTLDThreshold is the MTLD lexical diversity floor.
	MTLDThreshold float64 `mapstructure:"mtld_threshold"`
	// StopwordThreshold is the maximum allowed stopword ratio.
	StopwordThreshold float64 `mapstructure:"stopword_threshold"`
	// MinSentences is the minimum sentence count.
	MinSentences int `mapstructure:"min_sentences"`
	// MinCoherence is the minimum mean sentence-embedding similarity.
	MinCoherence float64 `mapstructure:"min_coherence"`
	// CheckSemantics enables the expensive semantic coherence check.
	CheckSemantics bool `mapstructure:"check_semantics"`
	// InputPath is the corpus CSV to evaluate.
	InputPath string `mapstructure:"input_path"`
	// CheckedPath receives every record plus an is_valid column.
	CheckedPath string `mapstructure:"checked_path"`
	// FilteredPath receives only the records that passed the gate.
	FilteredPath string `mapstructure:"filtered_path"`
}

// EmbeddingConfig holds embedding API settings for the semantic check.
type EmbeddingConfig struct {
	// APIKey is the embedding API key (loaded from DOCHARVEST_EMBEDDING_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the OpenAI-compatible embeddings endpoint base URL.
	BaseURL string `mapstructure:"base_url"`
	// Model is the embedding model name.
	Model string `mapstructure:"model"`
	// Timeout is the timeout for embedding API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// SampleConfig holds stratified sampling settings.
type SampleConfig struct {
	// Seed is the random seed for reproducible draws.
	Seed int64 `mapstructure:"seed"`
	// OutlierQuantile drops query groups below this quantile of group
	// sizes before computing the per-group draw size (0 disables).
	OutlierQuantile float64 `mapstructure:"outlier_quantile"`
	// MaxPerGroup caps the per-group draw size (0 disables the cap).
	MaxPerGroup int `mapstructure:"max_per_group"`
	// EnglishOnly keeps only records whose language is English.
	EnglishOnly bool `mapstructure:"english_only"`
	// InputPath is the corpus CSV to sample from.
	InputPath string `mapstructure:"input_path"`
	// OutputPath receives the sampled records.
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("DOCHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/docharvest")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	cfg.Embedding.APIKey = os.Getenv("DOCHARVEST_EMBEDDING_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9091)

	// Source defaults (World Bank Documents & Reports API)
	v.SetDefault("source.base_url", "https://search.worldbank.org/api/v3/wds")
	v.SetDefault("source.language", "English")
	v.SetDefault("source.fields", "display_title,abstracts,lang,count,admreg,docty,disclosure_date,keywd,theme,subtopic,historic_topic,pdfurl")
	v.SetDefault("source.start_date", "2017-01-01")
	v.SetDefault("source.end_date", "2025-05-16")
	v.SetDefault("source.timeout", "60s")
	v.SetDefault("source.rate_limit", 2.0)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.retry_delay", "2s")
	v.SetDefault("source.user_agent", "docharvest/1.0")

	// Harvest defaults
	v.SetDefault("harvest.queries", []string{})
	v.SetDefault("harvest.page_size", 500)
	v.SetDefault("harvest.max_records", 10000)
	v.SetDefault("harvest.courtesy_delay", "1s")
	v.SetDefault("harvest.corpus_path", "data/raw/documents.csv")
	v.SetDefault("harvest.archive_path", "data/raw/documents.json")
	v.SetDefault("harvest.ledger_path", "data/raw/ledger.json")
	v.SetDefault("harvest.resume", true)

	// Quality gate defaults
	v.SetDefault("quality.ttr_threshold", 0.4)
	v.SetDefault("quality.mtld_threshold", 20.0)
	v.SetDefault("quality.stopword_threshold", 0.6)
	v.SetDefault("quality.min_sentences", 2)
	v.SetDefault("quality.min_coherence", 0.5)
	v.SetDefault("quality.check_semantics", false)
	v.SetDefault("quality.input_path", "data/raw/documents.csv")
	v.SetDefault("quality.checked_path", "data/interim/checked_documents.csv")
	v.SetDefault("quality.filtered_path", "data/interim/quality_documents.csv")

	// Embedding defaults
	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.max_retries", 3)
	v.SetDefault("embedding.retry_delay", "2s")

	// Sample defaults
	v.SetDefault("sample.seed", 42)
	v.SetDefault("sample.outlier_quantile", 0.01)
	v.SetDefault("sample.max_per_group", 0)
	v.SetDefault("sample.english_only", true)
	v.SetDefault("sample.input_path", "data/interim/quality_documents.csv")
	v.SetDefault("sample.output_path", "data/interim/stratified_sample.csv")
}

// Validate checks configuration invariants common to all jobs.
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate metrics config
	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path is required when metrics are enabled")
		}
	}

	// Validate source config
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source base URL is required")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Source.RateLimit <= 0 {
		return fmt.Errorf("source rate limit must be positive")
	}
	if c.Source.MaxRetries < 1 {
		return fmt.Errorf("source max_retries must be at least 1")
	}

	// Validate harvest config
	if c.Harvest.PageSize <= 0 {
		return fmt.Errorf("harvest page_size must be positive")
	}
	if c.Harvest.MaxRecords <= 0 {
		return fmt.Errorf("harvest max_records must be positive")
	}
	if c.Harvest.CorpusPath == "" || c.Harvest.LedgerPath == "" {
		return fmt.Errorf("harvest corpus_path and ledger_path are required")
	}

	// Validate quality thresholds
	if c.Quality.TTRThreshold < 0 || c.Quality.TTRThreshold > 1 {
		return fmt.Errorf("quality ttr_threshold must be between 0 and 1")
	}
	if c.Quality.StopwordThreshold < 0 || c.Quality.StopwordThreshold > 1 {
		return fmt.Errorf("quality stopword_threshold must be between 0 and 1")
	}
	if c.Quality.MTLDThreshold < 0 {
		return fmt.Errorf("quality mtld_threshold must be non-negative")
	}
	if c.Quality.MinSentences < 1 {
		return fmt.Errorf("quality min_sentences must be at least 1")
	}
	if c.Quality.CheckSemantics && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding API key is required when check_semantics is enabled")
	}

	// Validate sample config
	if c.Sample.OutlierQuantile < 0 || c.Sample.OutlierQuantile >= 1 {
		return fmt.Errorf("sample outlier_quantile must be in [0, 1)")
	}
	if c.Sample.MaxPerGroup < 0 {
		return fmt.Errorf("sample max_per_group must be non-negative")
	}

	return nil
}
