package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/repository"
)

// ProductStore is an in-memory repository.EntityStore.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductStore creates a store holding products.
func NewProductStore(products ...domain.Product) *ProductStore {
	s := &ProductStore{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// Put adds or replaces products.
func (s *ProductStore) Put(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.products[p.ID] = p
	}
	return nil
}

// FetchByIDs returns the known products among ids with only the projected
// attributes set. Duplicate ids yield one product each.
func (s *ProductStore) FetchByIDs(ctx context.Context, ids []string, projection []string, visibility []int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, attr := range projection {
		if !knownAttribute(attr) {
			return nil, fmt.Errorf("unknown projection attribute %q", attr)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok || seen[id] {
			continue
		}
		if len(visibility) > 0 && !slices.Contains(visibility, p.Visibility) {
			continue
		}
		seen[id] = true
		out = append(out, project(&p, projection))
	}
	return out, nil
}

func knownAttribute(attr string) bool {
	switch attr {
	case repository.AttrName, repository.AttrSKU, repository.AttrDescription, repository.AttrTypeID,
		repository.AttrImage, repository.AttrPrice, repository.AttrVisibility, repository.AttrStockStatus,
		repository.AttrAllowOpenAmount, repository.AttrOpenAmountMin, repository.AttrOpenAmountMax:
		return true
	}
	return false
}

func project(p *domain.Product, projection []string) domain.Product {
	out := domain.Product{ID: p.ID}
	for _, attr := range projection {
		switch attr {
		case repository.AttrName:
			out.Name = p.Name
		case repository.AttrSKU:
			out.SKU = p.SKU
		case repository.AttrDescription:
			out.Description = p.Description
		case repository.AttrTypeID:
			out.TypeID = p.TypeID
		case repository.AttrImage:
			out.Image = p.Image
		case repository.AttrPrice:
			out.Price = p.Price
			out.SpecialPrice = p.SpecialPrice
			out.SpecialFrom = p.SpecialFrom
			out.SpecialTo = p.SpecialTo
			out.Currency = p.Currency
			out.GiftcardAmounts = slices.Clone(p.GiftcardAmounts)
			out.BundleOptions = slices.Clone(p.BundleOptions)
		case repository.AttrVisibility:
			out.Visibility = p.Visibility
		case repository.AttrStockStatus:
			out.StockStatus = p.StockStatus
		case repository.AttrAllowOpenAmount:
			out.AllowOpenAmount = p.AllowOpenAmount
		case repository.AttrOpenAmountMin:
			out.OpenAmountMin = p.OpenAmountMin
		case repository.AttrOpenAmountMax:
			out.OpenAmountMax = p.OpenAmountMax
		}
	}
	return out
}

type catalogFile struct {
	Products []domain.Product `yaml:"products"`
}

// LoadCatalog reads a YAML product fixture with a top-level products list.
func LoadCatalog(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	for i, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog file %s: product %d has no id", path, i)
		}
	}
	return f.Products, nil
}
