package domain

import (
	"strconv"
	"time"
)

// ProductType is the catalog type code of a product.
type ProductType string

const (
	TypeSimple       ProductType = "simple"
	TypeVirtual      ProductType = "virtual"
	TypeConfigurable ProductType = "configurable"
	TypeDownloadable ProductType = "downloadable"
	TypeBundle       ProductType = "bundle"
	TypeGiftcard     ProductType = "giftcard"
)

// Visibility codes.
const (
	VisibilityNotVisible = 1
	VisibilityInCatalog  = 2
	VisibilityInSearch   = 3
	VisibilityBoth       = 4
)

// VisibleInCatalog returns the visibility codes of products listed in the
// catalog.
func VisibleInCatalog() []int {
	return []int{VisibilityInCatalog, VisibilityBoth}
}

// Stock status codes.
const (
	StockOutOfStock = 0
	StockInStock    = 1
)

// BundleSelection is one choosable item inside a bundle option.
type BundleSelection struct {
	Name      string `json:"name" yaml:"name"`
	Price     int64  `json:"price" yaml:"price"`
	Qty       int    `json:"qty" yaml:"qty"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
}

// BundleOption groups the selections a shopper picks from.
type BundleOption struct {
	Title      string            `json:"title" yaml:"title"`
	Required   bool              `json:"required" yaml:"required"`
	Selections []BundleSelection `json:"selections" yaml:"selections"`
}

// Product is a catalog entity as loaded from the primary store. Monetary
// amounts are in minor units of Currency.
type Product struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	SKU         string      `json:"sku" yaml:"sku"`
	Description string      `json:"description,omitempty" yaml:"description"`
	TypeID      ProductType `json:"type_id" yaml:"type_id"`
	Visibility  int         `json:"visibility" yaml:"visibility"`
	StockStatus int         `json:"stock_status" yaml:"stock_status"`
	Image       string      `json:"image,omitempty" yaml:"image"`

	Price        int64      `json:"price" yaml:"price"`
	SpecialPrice *int64     `json:"special_price,omitempty" yaml:"special_price"`
	SpecialFrom  *time.Time `json:"special_from,omitempty" yaml:"special_from"`
	SpecialTo    *time.Time `json:"special_to,omitempty" yaml:"special_to"`
	Currency     string     `json:"currency" yaml:"currency"`

	AllowOpenAmount bool    `json:"allow_open_amount" yaml:"allow_open_amount"`
	OpenAmountMin   *int64  `json:"open_amount_min,omitempty" yaml:"open_amount_min"`
	OpenAmountMax   *int64  `json:"open_amount_max,omitempty" yaml:"open_amount_max"`
	GiftcardAmounts []int64 `json:"giftcard_amounts,omitempty" yaml:"giftcard_amounts"`

	BundleOptions []BundleOption `json:"bundle_options,omitempty" yaml:"bundle_options"`
}

// FieldValue returns the product's value for a filterable field in its
// string form, and false for fields that cannot be filtered on.
func (p *Product) FieldValue(field string) (string, bool) {
	switch field {
	case FilterVisibility:
		return strconv.Itoa(p.Visibility), true
	case FilterStockStatus:
		return strconv.Itoa(p.StockStatus), true
	case FilterTypeID:
		return string(p.TypeID), true
	case FilterSKU:
		return p.SKU, true
	}
	return "", false
}
