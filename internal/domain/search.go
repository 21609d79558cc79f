package domain

import "slices"

// QuickSearchContainer names the index request container for quick search.
const QuickSearchContainer = "quick_search_container"

// Filterable fields.
const (
	FilterVisibility  = "visibility"
	FilterStockStatus = "stock_status"
	FilterTypeID      = "type_id"
	FilterSKU         = "sku"
)

// FilterValue is either a single term or a set of terms.
type FilterValue struct {
	terms []string
	set   bool
}

// Term builds a scalar filter value.
func Term(v string) FilterValue {
	return FilterValue{terms: []string{v}}
}

// OneOf builds a set filter value.
func OneOf(vs ...string) FilterValue {
	return FilterValue{terms: slices.Clone(vs), set: true}
}

// IsSet reports whether the value is a set rather than a scalar.
func (f FilterValue) IsSet() bool { return f.set }

// Terms returns a copy of the terms.
func (f FilterValue) Terms() []string { return slices.Clone(f.terms) }

// Scalar returns the single term of a scalar value.
func (f FilterValue) Scalar() string {
	if f.set || len(f.terms) == 0 {
		return ""
	}
	return f.terms[0]
}

// Matches reports whether v satisfies the filter.
func (f FilterValue) Matches(v string) bool {
	return slices.Contains(f.terms, v)
}

// SortOrder orders index results by a field.
type SortOrder struct {
	Field     string
	Direction string
}

// SearchRequest is a fully specified index query. It is built once per
// search and not modified afterwards.
type SearchRequest struct {
	StoreID    string
	Container  string
	From       int
	Size       int
	QueryText  string
	SortOrders []SortOrder
	Filters    map[string]FilterValue
}

// Match is one hit yielded by the index.
type Match struct {
	ID    string
	Score float64
}

// SearchResultItem is the lightweight record returned to callers.
type SearchResultItem struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	SKU    string      `json:"sku"`
	Image  string      `json:"image"`
	Price  string      `json:"price"`
	TypeID ProductType `json:"type_id"`
}
