package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/pricing"
	"github.com/utafrali/quicksearch/pkg/logger"
)

// PriceRenderer formats a product price with a named strategy.
type PriceRenderer interface {
	Render(ctx context.Context, code pricing.Code, p *domain.Product, rc pricing.RenderContext) (string, error)
}

// ImageResolver returns the display image URL of a product.
type ImageResolver interface {
	ResolveURL(ctx context.Context, p *domain.Product) (string, error)
}

// Enricher builds result items from products. Rendering failures degrade
// the item instead of failing the search.
type Enricher struct {
	prices      PriceRenderer
	images      ImageResolver
	placeholder string
	metrics     *Metrics
	logger      *slog.Logger
}

// NewEnricher creates an enricher. placeholder is used as the price of
// items whose price cannot be rendered.
func NewEnricher(prices PriceRenderer, images ImageResolver, placeholder string, metrics *Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		prices:      prices,
		images:      images,
		placeholder: placeholder,
		metrics:     metrics,
		logger:      logger,
	}
}

// Enrich renders p for the item list. ctx must carry the storefront
// environment of the search.
func (e *Enricher) Enrich(ctx context.Context, p domain.Product) domain.SearchResultItem {
	log := logger.WithContext(ctx, e.logger)
	code := pricing.CodeFor(p.TypeID)

	price, err := e.prices.Render(ctx, code, &p, pricing.RenderContext{Zone: pricing.ZoneItemList})
	if err != nil {
		log.WarnContext(ctx, "price rendering failed, using placeholder",
			slog.String("product_id", p.ID),
			slog.String("strategy", string(code)),
			slog.String("error", err.Error()),
		)
		e.metrics.degraded.WithLabelValues("price").Inc()
		price = e.placeholder
	}

	image, err := e.images.ResolveURL(ctx, &p)
	if err != nil {
		log.WarnContext(ctx, "image resolution failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		e.metrics.degraded.WithLabelValues("image").Inc()
		image = ""
	}

	return domain.SearchResultItem{
		ID:     p.ID,
		Name:   p.Name,
		SKU:    p.SKU,
		Image:  image,
		Price:  price,
		TypeID: p.TypeID,
	}
}
