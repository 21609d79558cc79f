package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/utafrali/quicksearch/internal/analytics"
	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
	"github.com/utafrali/quicksearch/internal/service"
	apperrors "github.com/utafrali/quicksearch/pkg/errors"
	"github.com/utafrali/quicksearch/pkg/httputil"
	"github.com/utafrali/quicksearch/pkg/validator"
)

const defaultPopularLimit = 10

// CatalogWriter stores product documents so they can be materialized after
// indexing.
type CatalogWriter interface {
	Put(ctx context.Context, products []domain.Product) error
}

// SearchHandler handles HTTP requests for quick search endpoints.
type SearchHandler struct {
	service *service.SearchService
	popular *analytics.TermTracker
	indexer engine.Indexer
	catalog CatalogWriter
	logger  *slog.Logger
}

// NewSearchHandler creates a new quick search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// WithPopular enables the popular terms endpoint.
func (h *SearchHandler) WithPopular(t *analytics.TermTracker) *SearchHandler {
	h.popular = t
	return h
}

// WithIndexing enables the development indexing endpoint.
func (h *SearchHandler) WithIndexing(idx engine.Indexer, catalog CatalogWriter) *SearchHandler {
	h.indexer = idx
	h.catalog = catalog
	return h
}

// --- Request DTOs ---

// SearchRequest holds the query parameters of a quick search. Query length
// is checked by the search pipeline so that its own error codes apply.
type SearchRequest struct {
	Query string `json:"q"`
	Store string `json:"store" validate:"omitempty,alphanum,max=32"`
}

// PopularRequest holds the query parameters of the popular terms endpoint.
type PopularRequest struct {
	Store string `json:"store" validate:"omitempty,alphanum,max=32"`
	Limit int    `json:"limit" validate:"min=1,max=50"`
}

// BundleSelectionRequest is one selection of a bundle option.
type BundleSelectionRequest struct {
	Name      string `json:"name"`
	Price     int64  `json:"price" validate:"gte=0"`
	Qty       int    `json:"qty" validate:"gte=0"`
	IsDefault bool   `json:"is_default"`
}

// BundleOptionRequest is one option of a bundle product.
type BundleOptionRequest struct {
	Title      string                   `json:"title"`
	Required   bool                     `json:"required"`
	Selections []BundleSelectionRequest `json:"selections" validate:"omitempty,dive"`
}

// IndexProductRequest is the JSON body of one product to index.
type IndexProductRequest struct {
	ID              string                `json:"id" validate:"required,max=64"`
	Name            string                `json:"name" validate:"required,max=255"`
	SKU             string                `json:"sku" validate:"required,max=64"`
	Description     string                `json:"description"`
	TypeID          string                `json:"type_id" validate:"required,oneof=simple virtual configurable downloadable bundle giftcard"`
	Visibility      int                   `json:"visibility" validate:"min=1,max=4"`
	StockStatus     int                   `json:"stock_status" validate:"min=0,max=1"`
	Image           string                `json:"image"`
	Price           int64                 `json:"price" validate:"gte=0"`
	SpecialPrice    *int64                `json:"special_price" validate:"omitempty,gte=0"`
	Currency        string                `json:"currency" validate:"omitempty,len=3"`
	AllowOpenAmount bool                  `json:"allow_open_amount"`
	OpenAmountMin   *int64                `json:"open_amount_min" validate:"omitempty,gte=0"`
	OpenAmountMax   *int64                `json:"open_amount_max" validate:"omitempty,gte=0"`
	GiftcardAmounts []int64               `json:"giftcard_amounts" validate:"omitempty,dive,gte=0"`
	BundleOptions   []BundleOptionRequest `json:"bundle_options" validate:"omitempty,dive"`
}

// IndexRequest is the JSON body of the indexing endpoint.
type IndexRequest struct {
	Products []IndexProductRequest `json:"products" validate:"required,min=1,max=500,dive"`
}

func (req *IndexProductRequest) toProduct() domain.Product {
	p := domain.Product{
		ID:              req.ID,
		Name:            req.Name,
		SKU:             req.SKU,
		Description:     req.Description,
		TypeID:          domain.ProductType(req.TypeID),
		Visibility:      req.Visibility,
		StockStatus:     req.StockStatus,
		Image:           req.Image,
		Price:           req.Price,
		SpecialPrice:    req.SpecialPrice,
		Currency:        req.Currency,
		AllowOpenAmount: req.AllowOpenAmount,
		OpenAmountMin:   req.OpenAmountMin,
		OpenAmountMax:   req.OpenAmountMax,
		GiftcardAmounts: req.GiftcardAmounts,
	}
	for _, o := range req.BundleOptions {
		opt := domain.BundleOption{Title: o.Title, Required: o.Required}
		for _, s := range o.Selections {
			opt.Selections = append(opt.Selections, domain.BundleSelection(s))
		}
		p.BundleOptions = append(p.BundleOptions, opt)
	}
	return p
}

// --- Handlers ---

// Search handles GET /api/v1/quick-order/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{
		Query: r.URL.Query().Get("q"),
		Store: r.URL.Query().Get("store"),
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	var (
		items []domain.SearchResultItem
		err   error
	)
	if req.Store == "" {
		items, err = h.service.Search(r.Context(), req.Query)
	} else {
		items, err = h.service.SearchInStore(r.Context(), req.Store, req.Query)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"items": items}})
}

// Popular handles GET /api/v1/quick-order/search/popular
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	req := PopularRequest{
		Store: r.URL.Query().Get("store"),
		Limit: defaultPopularLimit,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be an integer"},
			})
			return
		}
		req.Limit = limit
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.Store == "" {
		req.Store = h.service.DefaultStore()
	}

	terms, err := h.popular.Popular(r.Context(), req.Store, req.Limit)
	if err != nil {
		httputil.WriteError(w, r, apperrors.ServiceUnavailable("ANALYTICS_UNAVAILABLE", "search analytics are unavailable", err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"store": req.Store, "terms": terms}})
}

// Index handles POST /api/v1/quick-order/index
func (h *SearchHandler) Index(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products := make([]domain.Product, 0, len(req.Products))
	for i := range req.Products {
		products = append(products, req.Products[i].toProduct())
	}

	if err := h.catalog.Put(r.Context(), products); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.indexer.BulkIndex(r.Context(), products); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "products indexed", slog.Int("count", len(products)))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"indexed": len(products), "status": "ok"}})
}
