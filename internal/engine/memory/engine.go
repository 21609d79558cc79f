package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/utafrali/quicksearch/internal/domain"
)

// Engine is an in-memory IndexSearch for local development and tests. It
// scores products by where the query tokens occur and honours every
// request filter. Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		products: make(map[string]domain.Product),
	}
}

// Index adds or replaces a single product.
func (e *Engine) Index(_ context.Context, p *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.products[p.ID] = *p
	return nil
}

// BulkIndex adds or replaces products.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range products {
		e.products[products[i].ID] = products[i]
	}
	return nil
}

// Delete removes a product. Missing IDs are ignored.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.products, id)
	return nil
}

// Len returns the number of indexed products.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}

// Execute returns matches ordered by score, then by ID.
func (e *Engine) Execute(ctx context.Context, req *domain.SearchRequest) ([]domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(req.QueryText))

	e.mu.RLock()
	matches := make([]domain.Match, 0)
	for id := range e.products {
		p := e.products[id]
		if !matchesFilters(&p, req.Filters) {
			continue
		}
		score, ok := scoreProduct(&p, tokens)
		if !ok {
			continue
		}
		matches = append(matches, domain.Match{ID: p.ID, Score: score})
	}
	e.mu.RUnlock()

	slices.SortFunc(matches, func(a, b domain.Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	from := min(max(req.From, 0), len(matches))
	end := len(matches)
	if req.Size > 0 {
		end = min(from+req.Size, end)
	}
	return matches[from:end], nil
}

func matchesFilters(p *domain.Product, filters map[string]domain.FilterValue) bool {
	for field, want := range filters {
		v, ok := p.FieldValue(field)
		if !ok || !want.Matches(v) {
			return false
		}
	}
	return true
}

// scoreProduct requires every token to occur in the name, SKU or
// description. An empty token list matches everything.
func scoreProduct(p *domain.Product, tokens []string) (float64, bool) {
	if len(tokens) == 0 {
		return 1, true
	}
	name := strings.ToLower(p.Name)
	sku := strings.ToLower(p.SKU)
	desc := strings.ToLower(p.Description)

	var score float64
	for _, tok := range tokens {
		switch {
		case sku == tok:
			score += 4
		case strings.Contains(name, tok):
			score += 3
		case strings.Contains(sku, tok):
			score += 2
		case strings.Contains(desc, tok):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}
