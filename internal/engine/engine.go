// Package engine defines the index search capability and the engines that
// implement it.
package engine

import (
	"context"

	"github.com/utafrali/quicksearch/internal/domain"
)

// Engine names accepted by SEARCH_ENGINE.
const (
	Elasticsearch = "elasticsearch"
	Memory        = "memory"
	Postgres      = "postgres"
)

// IndexSearch executes a search request and yields matching product IDs in
// relevance order.
type IndexSearch interface {
	Execute(ctx context.Context, req *domain.SearchRequest) ([]domain.Match, error)
}

// Indexer writes product documents into an index.
type Indexer interface {
	BulkIndex(ctx context.Context, products []domain.Product) error
}

// IsIndexBacked reports whether the named engine is a dedicated search
// index. For the relational fallback visibility is enforced again when
// entities are fetched.
func IsIndexBacked(name string) bool {
	switch name {
	case Elasticsearch, Memory:
		return true
	default:
		return false
	}
}
