package service

import (
	"context"
	"fmt"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/engine"
)

// IDResolver asks the index for the IDs matching a request.
type IDResolver struct {
	index engine.IndexSearch
}

// NewIDResolver creates a resolver over index.
func NewIDResolver(index engine.IndexSearch) *IDResolver {
	return &IDResolver{index: index}
}

// Resolve returns matching IDs in the order the index yields them, at most
// req.Size of them when a size is set. Any index failure is wrapped in
// domain.ErrIndexUnavailable; nothing is retried here.
func (r *IDResolver) Resolve(ctx context.Context, req *domain.SearchRequest) ([]string, error) {
	matches, err := r.index.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	if req.Size > 0 && len(matches) > req.Size {
		matches = matches[:req.Size]
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
