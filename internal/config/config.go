package config

import (
	"fmt"
	"time"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
	pkgconfig "github.com/utafrali/quicksearch/pkg/config"
	"github.com/utafrali/quicksearch/pkg/database"
)

// Config holds all configuration for the quick search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"QUICKSEARCH_HTTP_PORT" envDefault:"8020"`
	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`

	// Search engine selection (elasticsearch, postgres or memory)
	SearchEngine       string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"quicksearch_products"`

	// Search pipeline
	MinQueryLength   int           `env:"SEARCH_MIN_QUERY_LENGTH" envDefault:"3"`
	MaxQueryLength   int           `env:"SEARCH_MAX_QUERY_LENGTH" envDefault:"128"`
	MaxResults       int           `env:"SEARCH_MAX_RESULTS" envDefault:"10"`
	VisibilityCodes  []int         `env:"SEARCH_VISIBILITY_CODES" envDefault:"2,4" envSeparator:","`
	InStockOnly      bool          `env:"SEARCH_IN_STOCK_ONLY" envDefault:"false"`
	SearchTimeout    time.Duration `env:"SEARCH_TIMEOUT" envDefault:"5s"`
	PricePlaceholder string        `env:"SEARCH_PRICE_PLACEHOLDER" envDefault:""`

	// Storefronts
	DefaultStore    string `env:"DEFAULT_STORE" envDefault:"default"`
	StoresFile      string `env:"STORES_FILE"`
	MediaBaseURL    string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8020/media/"`
	CatalogSeedFile string `env:"CATALOG_SEED_FILE"`

	// PostgreSQL
	PostgresEnabled bool   `env:"POSTGRES_ENABLED" envDefault:"false"`
	PostgresHost    string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER" envDefault:"quicksearch"`
	PostgresPass    string `env:"POSTGRES_PASSWORD" envDefault:"quicksearch_secret"`
	PostgresDB      string `env:"QUICKSEARCH_DB_NAME" envDefault:"catalog_db"`
	PostgresSSL     string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	RunMigrations   bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Redis (search term analytics)
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	TermsTTL      time.Duration `env:"SEARCH_TERMS_TTL" envDefault:"720h"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"SEARCH_EVENTS_ENABLED" envDefault:"false"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Rate limiting of the search endpoint
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Circuit breaker around the search index
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithDotEnv(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load quicksearch config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchEngine {
	case engine.Elasticsearch, engine.Memory:
	case engine.Postgres:
		if !c.PostgresEnabled {
			return fmt.Errorf("SEARCH_ENGINE=postgres requires POSTGRES_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown SEARCH_ENGINE %q", c.SearchEngine)
	}
	if c.MinQueryLength < 1 {
		return fmt.Errorf("SEARCH_MIN_QUERY_LENGTH must be at least 1, got %d", c.MinQueryLength)
	}
	if c.MaxQueryLength < c.MinQueryLength {
		return fmt.Errorf("SEARCH_MAX_QUERY_LENGTH (%d) must not be below SEARCH_MIN_QUERY_LENGTH (%d)", c.MaxQueryLength, c.MinQueryLength)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be at least 1, got %d", c.MaxResults)
	}
	if len(c.VisibilityCodes) == 0 {
		return fmt.Errorf("SEARCH_VISIBILITY_CODES is required")
	}
	for _, v := range c.VisibilityCodes {
		if v < domain.VisibilityNotVisible || v > domain.VisibilityBoth {
			return fmt.Errorf("invalid visibility code %d in SEARCH_VISIBILITY_CODES", v)
		}
	}
	if c.SearchTimeout < 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must not be negative")
	}
	if c.DefaultStore == "" {
		return fmt.Errorf("DEFAULT_STORE is required")
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when SEARCH_EVENTS_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	return nil
}

// Postgres returns the connection settings of the product database.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings of the analytics Redis.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// SlowQueryThreshold returns the slow query logging threshold; zero disables it.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
