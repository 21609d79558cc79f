package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/quicksearch/internal/service"
	pkgkafka "github.com/utafrali/quicksearch/pkg/kafka"
	"github.com/utafrali/quicksearch/pkg/logger"
)

// TopicSearchPerformed receives one event per completed quick search.
var TopicSearchPerformed = pkgkafka.Topic("search", "performed")

// EventTypeSearchPerformed is the event type of completed searches.
const EventTypeSearchPerformed = "search.performed"

// AggregateTypeSearchTerm is the aggregate type of search events.
const AggregateTypeSearchTerm = "search_term"

// SourceQuickSearchService identifies events from this service.
const SourceQuickSearchService = "quicksearch-service"

// SearchPerformedData is the payload of a search.performed event.
type SearchPerformedData struct {
	StoreID string `json:"store_id"`
	Query   string `json:"query"`
	Results int    `json:"num_results"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes search events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates an event producer backed by kafka.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// RecordSearch implements service.SearchRecorder by publishing a
// search.performed event keyed by store.
func (p *Producer) RecordSearch(ctx context.Context, rec service.SearchRecord) error {
	data := SearchPerformedData{
		StoreID: rec.StoreID,
		Query:   rec.Query,
		Results: rec.Results,
	}

	evt, err := pkgkafka.NewEvent(EventTypeSearchPerformed, rec.StoreID, AggregateTypeSearchTerm, SourceQuickSearchService, data)
	if err != nil {
		return fmt.Errorf("create search.performed event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicSearchPerformed, evt); err != nil {
		return fmt.Errorf("publish search.performed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published search.performed event",
		slog.String("event_id", evt.EventID),
		slog.String("store", rec.StoreID),
	)
	return nil
}
