package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, "https://search.worldbank.org/api/v3/wds", cfg.Source.BaseURL)
	assert.Equal(t, "English", cfg.Source.Language)
	assert.Equal(t, 60*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 3, cfg.Source.MaxRetries)

	assert.Equal(t, 500, cfg.Harvest.PageSize)
	assert.Equal(t, 10000, cfg.Harvest.MaxRecords)
	assert.Equal(t, time.Second, cfg.Harvest.CourtesyDelay)
	assert.True(t, cfg.Harvest.Resume)

	assert.Equal(t, 0.4, cfg.Quality.TTRThreshold)
	assert.Equal(t, 20.0, cfg.Quality.MTLDThreshold)
	assert.Equal(t, 0.6, cfg.Quality.StopwordThreshold)
	assert.Equal(t, 2, cfg.Quality.MinSentences)
	assert.False(t, cfg.Quality.CheckSemantics)

	assert.Equal(t, int64(42), cfg.Sample.Seed)
	assert.Equal(t, 0.01, cfg.Sample.OutlierQuantile)
	assert.True(t, cfg.Sample.EnglishOnly)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCHARVEST_HARVEST_PAGE_SIZE", "250")
	t.Setenv("DOCHARVEST_SOURCE_RATE_LIMIT", "5")
	t.Setenv("DOCHARVEST_LOGGING_LEVEL", "debug")
	t.Setenv("DOCHARVEST_HARVEST_COURTESY_DELAY", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Harvest.PageSize)
	assert.Equal(t, 5.0, cfg.Source.RateLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Harvest.CourtesyDelay)
}

func TestLoadEmbeddingAPIKeyFromEnv(t *testing.T) {
	t.Setenv("DOCHARVEST_EMBEDDING_API_KEY", "sk-test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.Embedding.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid metrics port",
			mutate:  func(cfg *Config) { cfg.Metrics.Port = 0 },
			wantErr: "metrics port",
		},
		{
			name:    "missing base URL",
			mutate:  func(cfg *Config) { cfg.Source.BaseURL = "" },
			wantErr: "base URL is required",
		},
		{
			name:    "zero max retries",
			mutate:  func(cfg *Config) { cfg.Source.MaxRetries = 0 },
			wantErr: "max_retries",
		},
		{
			name:    "zero page size",
			mutate:  func(cfg *Config) { cfg.Harvest.PageSize = 0 },
			wantErr: "page_size",
		},
		{
			name:    "ttr threshold out of range",
			mutate:  func(cfg *Config) { cfg.Quality.TTRThreshold = 1.5 },
			wantErr: "ttr_threshold",
		},
		{
			name:    "semantics without API key",
			mutate:  func(cfg *Config) { cfg.Quality.CheckSemantics = true; cfg.Embedding.APIKey = "" },
			wantErr: "embedding API key",
		},
		{
			name:    "outlier quantile out of range",
			mutate:  func(cfg *Config) { cfg.Sample.OutlierQuantile = 1 },
			wantErr: "outlier_quantile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
