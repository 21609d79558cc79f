package service

import (
	"strconv"

	"github.com/utafrali/quicksearch/internal/domain"
)

// RequestBuilder turns a validated query into an index request.
type RequestBuilder struct {
	maxResults  int
	inStockOnly bool
}

// NewRequestBuilder returns a builder requesting at most maxResults hits.
// With inStockOnly every request also filters on stock status.
func NewRequestBuilder(maxResults int, inStockOnly bool) *RequestBuilder {
	return &RequestBuilder{maxResults: maxResults, inStockOnly: inStockOnly}
}

// Build returns the quick search request for q in storeID restricted to the
// given visibility codes.
func (b *RequestBuilder) Build(q ValidatedQuery, storeID string, visibility []int) *domain.SearchRequest {
	codes := make([]string, 0, len(visibility))
	for _, v := range visibility {
		codes = append(codes, strconv.Itoa(v))
	}

	filters := map[string]domain.FilterValue{
		domain.FilterVisibility: domain.OneOf(codes...),
	}
	if b.inStockOnly {
		filters[domain.FilterStockStatus] = domain.Term(strconv.Itoa(domain.StockInStock))
	}

	return &domain.SearchRequest{
		StoreID:    storeID,
		Container:  domain.QuickSearchContainer,
		From:       0,
		Size:       b.maxResults,
		QueryText:  q.Text,
		SortOrders: []domain.SortOrder{},
		Filters:    filters,
	}
}
