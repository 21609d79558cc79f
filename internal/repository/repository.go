// Package repository defines the primary product store.
package repository

import (
	"context"

	"github.com/utafrali/quicksearch/internal/domain"
)

// Projection attribute names understood by every EntityStore.
const (
	AttrName            = "name"
	AttrSKU             = "sku"
	AttrDescription     = "description"
	AttrTypeID          = "type_id"
	AttrImage           = "image"
	AttrPrice           = "price"
	AttrVisibility      = "visibility"
	AttrStockStatus     = "stock_status"
	AttrAllowOpenAmount = "allow_open_amount"
	AttrOpenAmountMin   = "open_amount_min"
	AttrOpenAmountMax   = "open_amount_max"
)

// QuickSearchProjection is the attribute set loaded for quick search
// results. AttrPrice covers all price data.
func QuickSearchProjection() []string {
	return []string{
		AttrName, AttrSKU, AttrTypeID, AttrImage, AttrPrice,
		AttrAllowOpenAmount, AttrOpenAmountMin, AttrOpenAmountMax,
	}
}

// EntityStore loads products by ID. Results are in no particular order and
// IDs the store does not know are omitted. A non-empty visibility restricts
// the result to those visibility codes.
type EntityStore interface {
	FetchByIDs(ctx context.Context, ids []string, projection []string, visibility []int) ([]domain.Product, error)
}
