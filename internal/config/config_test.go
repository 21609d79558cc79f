package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8020, cfg.HTTPPort)
	assert.Equal(t, "elasticsearch", cfg.SearchEngine)
	assert.Equal(t, "quicksearch_products", cfg.ElasticsearchIndex)
	assert.Equal(t, 3, cfg.MinQueryLength)
	assert.Equal(t, 128, cfg.MaxQueryLength)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, []int{2, 4}, cfg.VisibilityCodes)
	assert.False(t, cfg.InStockOnly)
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout)
	assert.Equal(t, "", cfg.PricePlaceholder)
	assert.Equal(t, "default", cfg.DefaultStore)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"SEARCH_ENGINE":           "memory",
		"SEARCH_MIN_QUERY_LENGTH": "2",
		"SEARCH_MAX_QUERY_LENGTH": "64",
		"SEARCH_VISIBILITY_CODES": "3,4",
		"SEARCH_IN_STOCK_ONLY":    "true",
		"SEARCH_TIMEOUT":          "750ms",
		"KAFKA_BROKERS":           "k1:9092,k2:9092",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.SearchEngine)
	assert.Equal(t, 2, cfg.MinQueryLength)
	assert.Equal(t, 64, cfg.MaxQueryLength)
	assert.Equal(t, []int{3, 4}, cfg.VisibilityCodes)
	assert.True(t, cfg.InStockOnly)
	assert.Equal(t, 750*time.Millisecond, cfg.SearchTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{
			name:    "port out of range",
			envs:    map[string]string{"QUICKSEARCH_HTTP_PORT": "0"},
			wantErr: "invalid HTTP port",
		},
		{
			name:    "unknown engine",
			envs:    map[string]string{"SEARCH_ENGINE": "solr"},
			wantErr: "unknown SEARCH_ENGINE",
		},
		{
			name:    "postgres engine without database",
			envs:    map[string]string{"SEARCH_ENGINE": "postgres"},
			wantErr: "requires POSTGRES_ENABLED",
		},
		{
			name:    "min length zero",
			envs:    map[string]string{"SEARCH_MIN_QUERY_LENGTH": "0"},
			wantErr: "SEARCH_MIN_QUERY_LENGTH",
		},
		{
			name:    "max below min",
			envs:    map[string]string{"SEARCH_MIN_QUERY_LENGTH": "5", "SEARCH_MAX_QUERY_LENGTH": "4"},
			wantErr: "must not be below",
		},
		{
			name:    "no results",
			envs:    map[string]string{"SEARCH_MAX_RESULTS": "0"},
			wantErr: "SEARCH_MAX_RESULTS",
		},
		{
			name:    "visibility out of range",
			envs:    map[string]string{"SEARCH_VISIBILITY_CODES": "2,5"},
			wantErr: "invalid visibility code 5",
		},
		{
			name:    "sample rate",
			envs:    map[string]string{"OTEL_SAMPLE_RATE": "1.5"},
			wantErr: "OTEL_SAMPLE_RATE",
		},
		{
			name:    "breaker ratio",
			envs:    map[string]string{"BREAKER_FAILURE_RATIO": "0"},
			wantErr: "BREAKER_FAILURE_RATIO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("SEARCH_VISIBILITY_CODES", "two,four")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load quicksearch config")
}

func TestConfig_Postgres(t *testing.T) {
	setEnvs(t, map[string]string{
		"POSTGRES_HOST":                "db",
		"DB_MAX_CONN_LIFETIME_MINUTES": "15",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db", pg.Host)
	assert.Equal(t, 15*time.Minute, pg.MaxConnLifetime)
	assert.Equal(t, "postgres://quicksearch:quicksearch_secret@db:5432/catalog_db?sslmode=disable", pg.DSN())
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())
}
