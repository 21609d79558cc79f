package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
	"github.com/utafrali/quicksearch/internal/repository"
	"github.com/utafrali/quicksearch/internal/storefront"
	apperrors "github.com/utafrali/quicksearch/pkg/errors"
	"github.com/utafrali/quicksearch/pkg/logger"
	"github.com/utafrali/quicksearch/pkg/tracing"
)

const tracerName = "github.com/utafrali/quicksearch/internal/service"

// EnvironmentScope hands out storefront environments.
type EnvironmentScope interface {
	Has(storeID string) bool
	Acquire(ctx context.Context, storeID string, area storefront.Area, isolated bool) (context.Context, *storefront.Handle, error)
	Release(h *storefront.Handle) error
}

// SearchRecord describes a completed search.
type SearchRecord struct {
	StoreID string
	Query   string
	Results int
}

// SearchRecorder observes completed searches. Failures are logged and do
// not affect the search.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, rec SearchRecord) error
}

// Options configures the search pipeline.
type Options struct {
	MinQueryLength   int
	MaxQueryLength   int
	MaxResults       int
	VisibilityCodes  []int
	InStockOnly      bool
	IndexBacked      bool
	PricePlaceholder string
	DefaultStore     string
	// Timeout bounds the index and store calls of one search; 0 disables it.
	Timeout time.Duration
}

// Dependencies are the collaborators of the search pipeline.
type Dependencies struct {
	Index     engine.IndexSearch
	Store     repository.EntityStore
	Prices    PriceRenderer
	Images    ImageResolver
	Scope     EnvironmentScope
	Recorders []SearchRecorder
}

// SearchService runs quick searches: validate, build the index request,
// resolve IDs, load the products and render them.
type SearchService struct {
	validator    *QueryValidator
	builder      *RequestBuilder
	resolver     *IDResolver
	materializer *Materializer
	enricher     *Enricher
	scope        EnvironmentScope
	recorders    []SearchRecorder
	opts         Options
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewSearchService wires the pipeline. A nil metrics creates unregistered
// collectors.
func NewSearchService(deps Dependencies, opts Options, metrics *Metrics, logger *slog.Logger) *SearchService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &SearchService{
		validator:    NewQueryValidator(opts.MinQueryLength, opts.MaxQueryLength),
		builder:      NewRequestBuilder(opts.MaxResults, opts.InStockOnly),
		resolver:     NewIDResolver(deps.Index),
		materializer: NewMaterializer(deps.Store, opts.VisibilityCodes, !opts.IndexBacked),
		enricher:     NewEnricher(deps.Prices, deps.Images, opts.PricePlaceholder, metrics, logger),
		scope:        deps.Scope,
		recorders:    deps.Recorders,
		opts:         opts,
		metrics:      metrics,
		tracer:       tracing.Tracer(tracerName),
		logger:       logger,
	}
}

// Search runs a quick search in the default store.
func (s *SearchService) Search(ctx context.Context, text string) ([]domain.SearchResultItem, error) {
	return s.SearchInStore(ctx, s.opts.DefaultStore, text)
}

// DefaultStore returns the store Search runs in.
func (s *SearchService) DefaultStore() string { return s.opts.DefaultStore }

// SearchInStore runs a quick search in storeID. It returns either every
// result item in index order or an error, never both.
func (s *SearchService) SearchInStore(ctx context.Context, storeID, text string) (items []domain.SearchResultItem, err error) {
	start := time.Now()
	stage := StageIdle

	ctx, span := s.tracer.Start(ctx, "quicksearch.search",
		trace.WithAttributes(attribute.String("quicksearch.store", storeID)),
	)
	defer func() {
		if rec := recover(); rec != nil {
			s.finish(ctx, span, storeID, stage, start, 0, fmt.Errorf("panic: %v", rec))
			span.End()
			panic(rec)
		}
		s.finish(ctx, span, storeID, stage, start, len(items), err)
		span.End()
	}()

	stage = StageValidating
	q, err := s.validator.Validate(text)
	if err != nil {
		return nil, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	stage = StageBuildingRequest
	if !s.scope.Has(storeID) {
		return nil, unknownStore(storeID, domain.ErrUnknownStore)
	}
	req := s.builder.Build(q, storeID, s.opts.VisibilityCodes)

	stage = StageResolving
	ids, err := s.resolve(ctx, req)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("INDEX_UNAVAILABLE", "search index is unavailable", err)
	}

	stage = StageMaterializing
	items, err = s.assemble(ctx, storeID, ids, &stage)
	if err != nil {
		return nil, err
	}

	stage = StageDone
	s.record(ctx, SearchRecord{StoreID: storeID, Query: q.Text, Results: len(items)})
	return items, nil
}

func (s *SearchService) resolve(ctx context.Context, req *domain.SearchRequest) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "quicksearch.resolve")
	defer span.End()

	ids, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("quicksearch.matches", len(ids)))
	return ids, nil
}

// assemble materializes and enriches inside a storefront environment that
// is released before returning, including on panic.
func (s *SearchService) assemble(ctx context.Context, storeID string, ids []string, stage *Stage) ([]domain.SearchResultItem, error) {
	envCtx, h, err := s.scope.Acquire(ctx, storeID, storefront.AreaFrontend, true)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStore) {
			return nil, unknownStore(storeID, err)
		}
		return nil, apperrors.Internal(err)
	}
	defer func() {
		if relErr := s.scope.Release(h); relErr != nil {
			s.logger.ErrorContext(ctx, "release storefront environment", slog.String("error", relErr.Error()))
		}
	}()

	matCtx, span := s.tracer.Start(envCtx, "quicksearch.materialize")
	products, err := s.materializer.Materialize(matCtx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, apperrors.ServiceUnavailable("STORE_UNAVAILABLE", "product store is unavailable", err)
	}
	span.End()

	*stage = StageEnriching
	enrichCtx, span := s.tracer.Start(envCtx, "quicksearch.enrich")
	defer span.End()

	items := make([]domain.SearchResultItem, 0, len(products))
	for _, p := range products {
		items = append(items, s.enricher.Enrich(enrichCtx, p))
	}
	return items, nil
}

func unknownStore(storeID string, err error) error {
	return apperrors.InvalidInputCode("UNKNOWN_STORE", fmt.Sprintf("unknown store %q", storeID), err)
}

func (s *SearchService) record(ctx context.Context, rec SearchRecord) {
	for _, r := range s.recorders {
		if err := r.RecordSearch(ctx, rec); err != nil {
			logger.WithContext(ctx, s.logger).WarnContext(ctx, "search recorder failed",
				slog.String("recorder", fmt.Sprintf("%T", r)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *SearchService) finish(ctx context.Context, span trace.Span, storeID string, stage Stage, start time.Time, n int, err error) {
	elapsed := time.Since(start)
	log := logger.WithContext(ctx, s.logger)

	if err == nil {
		s.metrics.requests.WithLabelValues(OutcomeSuccess, stage.String()).Inc()
		s.metrics.duration.WithLabelValues(OutcomeSuccess).Observe(elapsed.Seconds())
		s.metrics.results.Observe(float64(n))
		span.SetAttributes(attribute.Int("quicksearch.results", n))
		log.DebugContext(ctx, "quick search completed",
			slog.String("store", storeID),
			slog.Int("results", n),
			slog.Duration("duration", elapsed),
		)
		return
	}

	outcome := OutcomeFailed
	if apperrors.HTTPStatus(err) < 500 {
		outcome = OutcomeRejected
	}
	s.metrics.requests.WithLabelValues(outcome, stage.String()).Inc()
	s.metrics.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("quicksearch.failed_stage", stage.String()))

	level := slog.LevelWarn
	if outcome == OutcomeRejected {
		level = slog.LevelDebug
	}
	log.Log(ctx, level, "quick search failed",
		slog.String("store", storeID),
		slog.String("stage", StageFailed.String()),
		slog.String("failed_in", stage.String()),
		slog.String("error", err.Error()),
		slog.Duration("duration", elapsed),
	)
}
