package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/quicksearch/internal/analytics"
	"github.com/utafrali/quicksearch/internal/engine"
	"github.com/utafrali/quicksearch/internal/service"
	"github.com/utafrali/quicksearch/pkg/health"
	"github.com/utafrali/quicksearch/pkg/middleware"
)

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// Registry receives the HTTP collectors and backs /metrics.
	Registry *prometheus.Registry
}

// Dependencies are the handlers' collaborators. Popular, Indexer and
// Catalog are optional; their routes are only mounted when set.
type Dependencies struct {
	Search  *service.SearchService
	Popular *analytics.TermTracker
	Indexer engine.Indexer
	Catalog CatalogWriter
	Health  *health.Handler
}

// NewRouter creates a chi router with all quick search routes registered.
// ctx bounds the rate limiter's background sweeper.
func NewRouter(ctx context.Context, cfg RouterConfig, deps Dependencies, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.NewHTTPMetrics(cfg.Registry, cfg.ServiceName).Middleware)

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry}))

	h := NewSearchHandler(deps.Search, logger)
	if deps.Popular != nil {
		h = h.WithPopular(deps.Popular)
	}
	if deps.Indexer != nil && deps.Catalog != nil {
		h = h.WithIndexing(deps.Indexer, deps.Catalog)
	}

	r.Route("/api/v1/quick-order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimitRPS > 0 {
				r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
			}
			r.Get("/search", h.Search)
		})
		if h.popular != nil {
			r.Get("/search/popular", h.Popular)
		}
		if h.indexer != nil {
			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/index", h.Index)
			})
		}
	})

	return r
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return chimw.AllowContentType("application/json")(next)
}
