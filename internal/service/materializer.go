package service

import (
	"context"
	"fmt"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/repository"
)

// Materializer loads matched products from the primary store.
type Materializer struct {
	store      repository.EntityStore
	projection []string
	// visibility is re-applied at fetch time when non-empty.
	visibility []int
}

// NewMaterializer creates a materializer. When reapplyVisibility is set the
// store is asked to enforce visibility again, for engines whose results
// are not already filtered.
func NewMaterializer(store repository.EntityStore, visibility []int, reapplyVisibility bool) *Materializer {
	m := &Materializer{
		store:      store,
		projection: repository.QuickSearchProjection(),
	}
	if reapplyVisibility {
		m.visibility = visibility
	}
	return m
}

// Materialize returns the products for ids in the order of ids. Products
// the store does not return are skipped; repeated ids repeat the product.
func (m *Materializer) Materialize(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	fetched, err := m.store.FetchByIDs(ctx, ids, m.projection, m.visibility)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	byID := make(map[string]*domain.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}
