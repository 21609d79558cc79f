package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/quicksearch/internal/analytics"
	"github.com/utafrali/quicksearch/internal/config"
	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
	esengine "github.com/utafrali/quicksearch/internal/engine/elasticsearch"
	enginememory "github.com/utafrali/quicksearch/internal/engine/memory"
	"github.com/utafrali/quicksearch/internal/event"
	handler "github.com/utafrali/quicksearch/internal/handler/http"
	"github.com/utafrali/quicksearch/internal/media"
	"github.com/utafrali/quicksearch/internal/pricing"
	"github.com/utafrali/quicksearch/internal/repository"
	repomemory "github.com/utafrali/quicksearch/internal/repository/memory"
	"github.com/utafrali/quicksearch/internal/repository/postgres"
	"github.com/utafrali/quicksearch/internal/service"
	"github.com/utafrali/quicksearch/internal/storefront"
	"github.com/utafrali/quicksearch/pkg/database"
	"github.com/utafrali/quicksearch/pkg/health"
	pkgkafka "github.com/utafrali/quicksearch/pkg/kafka"
	"github.com/utafrali/quicksearch/pkg/tracing"
)

const serviceName = "quicksearch-service"

// App wires together all dependencies and runs the quick search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	kafka          *pkgkafka.Producer
	shutdownTracer tracing.ShutdownFunc
	httpServer     *http.Server
	stopRouter     context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources opened before a failure are released before returning.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.closeResources()
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.shutdownTracer, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	healthHandler := health.NewHandler()

	// Storefronts.
	stores, err := loadStores(cfg)
	if err != nil {
		return nil, err
	}
	emulator, err := storefront.NewEmulator(stores, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("init storefront emulator: %w", err)
	}
	if !emulator.Has(cfg.DefaultStore) {
		return nil, fmt.Errorf("DEFAULT_STORE %q is not a configured store", cfg.DefaultStore)
	}

	// Product store.
	var (
		store   repository.EntityStore
		pgRepo  *postgres.ProductRepository
		memRepo *repomemory.ProductStore
	)
	if cfg.PostgresEnabled {
		a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		registry.MustRegister(database.NewPoolStatsCollector(a.pool, "quicksearch"))
		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, a.pool, postgres.Migrations(), logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		healthHandler.RegisterCritical("postgres", a.pool.Ping)
		pgRepo = postgres.NewProductRepository(a.pool)
		store = pgRepo
		logger.Info("postgres product store initialized", slog.String("db", cfg.PostgresDB))
	} else {
		memRepo = repomemory.NewProductStore()
		store = memRepo
		logger.Info("in-memory product store initialized")
	}

	// Search index.
	var (
		index   engine.IndexSearch
		indexer engine.Indexer
		memEng  *enginememory.Engine
	)
	switch cfg.SearchEngine {
	case engine.Elasticsearch:
		esEng, err := esengine.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		healthHandler.RegisterCritical("elasticsearch", esEng.Ping)
		index, indexer = esEng, esEng
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	case engine.Postgres:
		index = postgres.NewSearchIndex(a.pool)
		logger.Info("postgres fallback search initialized")
	default:
		memEng = enginememory.New()
		index, indexer = memEng, memEng
		logger.Info("in-memory search engine initialized")
	}

	if cfg.CatalogSeedFile != "" {
		if err := seedCatalog(ctx, cfg.CatalogSeedFile, pgRepo, memRepo, indexer, logger); err != nil {
			return nil, err
		}
	}

	bcfg := engine.DefaultBreakerConfig(cfg.SearchEngine)
	bcfg.Timeout = cfg.BreakerTimeout
	bcfg.FailureRatio = cfg.BreakerFailureRatio
	bcfg.MinRequests = cfg.BreakerMinRequests
	index = engine.NewBreaker(index, bcfg, registry, logger)

	// Search recorders.
	var recorders []service.SearchRecorder
	var tracker *analytics.TermTracker
	if cfg.RedisEnabled {
		a.redis, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		tracker = analytics.NewTermTracker(a.redis, cfg.TermsTTL)
		recorders = append(recorders, tracker)
		healthHandler.RegisterNonCritical("redis", tracker.Ping)
		logger.Info("search term analytics enabled", slog.String("addr", cfg.RedisAddr))
	}
	if cfg.EventsEnabled {
		a.kafka = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), registry, logger)
		recorders = append(recorders, event.NewProducer(a.kafka, logger))
		healthHandler.RegisterNonCritical("kafka", a.kafka.Ping)
		logger.Info("search events enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the service layer.
	searchService := service.NewSearchService(service.Dependencies{
		Index:     index,
		Store:     store,
		Prices:    pricing.NewRenderer(),
		Images:    media.NewResolver(cfg.MediaBaseURL),
		Scope:     emulator,
		Recorders: recorders,
	}, service.Options{
		MinQueryLength:   cfg.MinQueryLength,
		MaxQueryLength:   cfg.MaxQueryLength,
		MaxResults:       cfg.MaxResults,
		VisibilityCodes:  cfg.VisibilityCodes,
		InStockOnly:      cfg.InStockOnly,
		IndexBacked:      engine.IsIndexBacked(cfg.SearchEngine),
		PricePlaceholder: cfg.PricePlaceholder,
		DefaultStore:     cfg.DefaultStore,
		Timeout:          cfg.SearchTimeout,
	}, service.NewMetrics(registry), logger)

	// HTTP router. Indexing over HTTP is a development aid for the
	// in-memory engine only.
	deps := handler.Dependencies{
		Search:  searchService,
		Popular: tracker,
		Health:  healthHandler,
	}
	if memEng != nil && memRepo != nil {
		deps.Indexer = memEng
		deps.Catalog = memRepo
	}

	var routerCtx context.Context
	routerCtx, a.stopRouter = context.WithCancel(context.Background())
	router := handler.NewRouter(routerCtx, handler.RouterConfig{
		ServiceName:    serviceName,
		RequestTimeout: cfg.HTTPRequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Registry:       registry,
	}, deps, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPRequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func loadStores(cfg *config.Config) ([]storefront.Store, error) {
	if cfg.StoresFile == "" {
		return []storefront.Store{storefront.DefaultStore(cfg.DefaultStore, cfg.MediaBaseURL)}, nil
	}
	stores, err := storefront.LoadStores(cfg.StoresFile)
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}
	return stores, nil
}

// seedCatalog loads a product fixture into whichever store and index are in
// use.
func seedCatalog(ctx context.Context, path string, pgRepo *postgres.ProductRepository, memRepo *repomemory.ProductStore, indexer engine.Indexer, logger *slog.Logger) error {
	products, err := repomemory.LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("load catalog seed: %w", err)
	}
	if err := putProducts(ctx, products, pgRepo, memRepo); err != nil {
		return fmt.Errorf("seed product store: %w", err)
	}
	if indexer != nil {
		if err := indexer.BulkIndex(ctx, products); err != nil {
			return fmt.Errorf("seed search index: %w", err)
		}
	}
	logger.Info("catalog seeded", slog.String("file", path), slog.Int("products", len(products)))
	return nil
}

func putProducts(ctx context.Context, products []domain.Product, pgRepo *postgres.ProductRepository, memRepo *repomemory.ProductStore) error {
	if pgRepo != nil {
		return pgRepo.Upsert(ctx, products)
	}
	return memRepo.Put(ctx, products)
}

// Run starts the HTTP server, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeResources())

	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if a.stopRouter != nil {
		a.stopRouter()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
