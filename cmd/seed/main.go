// Command seed populates the product store and search index with a
// deterministic generated catalog, or writes it as a YAML fixture for the
// in-memory engine.
//
// Run: SEED_COUNT=10000 POSTGRES_ENABLED=true go run ./cmd/seed
//
//	SEED_OUTPUT=catalog.yaml go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/quicksearch/internal/config"
	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
	esengine "github.com/utafrali/quicksearch/internal/engine/elasticsearch"
	"github.com/utafrali/quicksearch/internal/repository/postgres"
	"github.com/utafrali/quicksearch/internal/seed"
	pkgconfig "github.com/utafrali/quicksearch/pkg/config"
	"github.com/utafrali/quicksearch/pkg/database"
	"github.com/utafrali/quicksearch/pkg/logger"
)

const batchSize = 500

type seedConfig struct {
	Count    int    `env:"SEED_COUNT" envDefault:"10000"`
	Random   uint64 `env:"SEED_RANDOM" envDefault:"42"`
	Currency string `env:"SEED_CURRENCY" envDefault:"USD"`
	Output   string `env:"SEED_OUTPUT"`
}

func main() {
	log := logger.New("quicksearch-seed", "info")
	if err := run(log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	var sc seedConfig
	if err := pkgconfig.Load(&sc); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Info("generating products", slog.Int("count", sc.Count), slog.Uint64("seed", sc.Random))
	products := seed.Generate(seed.Options{Count: sc.Count, Seed: sc.Random, Currency: sc.Currency})

	if sc.Output != "" {
		return writeFixture(sc.Output, products, log)
	}

	seeded := false
	if cfg.PostgresEnabled {
		if err := seedPostgres(ctx, cfg, products, log); err != nil {
			return err
		}
		seeded = true
	}
	if cfg.SearchEngine == engine.Elasticsearch {
		es, err := esengine.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, log)
		if err != nil {
			return fmt.Errorf("init elasticsearch engine: %w", err)
		}
		if err := inBatches(products, func(batch []domain.Product) error {
			return es.BulkIndex(ctx, batch)
		}); err != nil {
			return fmt.Errorf("index products: %w", err)
		}
		log.Info("products indexed", slog.String("index", cfg.ElasticsearchIndex), slog.Int("count", len(products)))
		seeded = true
	}
	if !seeded {
		return fmt.Errorf("nothing to seed: set SEED_OUTPUT, POSTGRES_ENABLED or SEARCH_ENGINE=elasticsearch")
	}
	return nil
}

func seedPostgres(ctx context.Context, cfg *config.Config, products []domain.Product, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo := postgres.NewProductRepository(pool)
	done := 0
	err = inBatches(products, func(batch []domain.Product) error {
		if err := repo.Upsert(ctx, batch); err != nil {
			return err
		}
		done += len(batch)
		if done%1000 == 0 || done == len(products) {
			log.Info("products upserted", slog.Int("done", done), slog.Int("total", len(products)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	return nil
}

func inBatches(products []domain.Product, fn func([]domain.Product) error) error {
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		if err := fn(products[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func writeFixture(path string, products []domain.Product, log *slog.Logger) error {
	data, err := yaml.Marshal(map[string]any{"products": products})
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- fixture file
		return fmt.Errorf("write catalog: %w", err)
	}
	log.Info("catalog written", slog.String("file", path), slog.Int("products", len(products)))
	return nil
}
