package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/repository"
	"github.com/utafrali/quicksearch/pkg/database"
)

// projectionColumns maps projection attributes to table columns.
var projectionColumns = map[string][]string{
	repository.AttrName:            {"name"},
	repository.AttrSKU:             {"sku"},
	repository.AttrDescription:     {"description"},
	repository.AttrTypeID:          {"type_id"},
	repository.AttrImage:           {"image"},
	repository.AttrPrice:           {"price", "special_price", "special_from", "special_to", "currency", "giftcard_amounts", "bundle_options"},
	repository.AttrVisibility:      {"visibility"},
	repository.AttrStockStatus:     {"stock_status"},
	repository.AttrAllowOpenAmount: {"allow_open_amount"},
	repository.AttrOpenAmountMin:   {"open_amount_min"},
	repository.AttrOpenAmountMax:   {"open_amount_max"},
}

// ProductRepository implements repository.EntityStore using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// selectColumns resolves a projection to the column list, id first and
// without duplicates.
func selectColumns(projection []string) ([]string, error) {
	cols := []string{"id"}
	for _, attr := range projection {
		mapped, ok := projectionColumns[attr]
		if !ok {
			return nil, fmt.Errorf("unknown projection attribute %q", attr)
		}
		for _, c := range mapped {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	return cols, nil
}

type productRow struct {
	p          domain.Product
	bundleJSON []byte
}

func (r *productRow) target(col string) any {
	switch col {
	case "id":
		return &r.p.ID
	case "name":
		return &r.p.Name
	case "sku":
		return &r.p.SKU
	case "description":
		return &r.p.Description
	case "type_id":
		return &r.p.TypeID
	case "image":
		return &r.p.Image
	case "price":
		return &r.p.Price
	case "special_price":
		return &r.p.SpecialPrice
	case "special_from":
		return &r.p.SpecialFrom
	case "special_to":
		return &r.p.SpecialTo
	case "currency":
		return &r.p.Currency
	case "giftcard_amounts":
		return &r.p.GiftcardAmounts
	case "bundle_options":
		return &r.bundleJSON
	case "visibility":
		return &r.p.Visibility
	case "stock_status":
		return &r.p.StockStatus
	case "allow_open_amount":
		return &r.p.AllowOpenAmount
	case "open_amount_min":
		return &r.p.OpenAmountMin
	case "open_amount_max":
		return &r.p.OpenAmountMax
	}
	return nil
}

// FetchByIDs loads the products with the given ids. Only the projected
// attributes are populated.
func (r *ProductRepository) FetchByIDs(ctx context.Context, ids []string, projection []string, visibility []int) (products []domain.Product, err error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	cols, err := selectColumns(projection)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM products WHERE id = ANY($1)"
	args := []any{ids}
	if len(visibility) > 0 {
		query += " AND visibility = ANY($2)"
		args = append(args, visibility)
	}

	ctx, end := database.TraceQuery(ctx, "SELECT", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var row productRow
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = row.target(c)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		if len(row.bundleJSON) > 0 {
			if err := json.Unmarshal(row.bundleJSON, &row.p.BundleOptions); err != nil {
				return nil, fmt.Errorf("unmarshal bundle_options of product %s: %w", row.p.ID, err)
			}
		}
		products = append(products, row.p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Upsert inserts products or replaces the existing rows with the same id,
// all in one transaction.
func (r *ProductRepository) Upsert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert products: %w", err)
	}

	const query = `
		INSERT INTO products (
			id, name, sku, description, type_id, visibility, stock_status, image,
			price, special_price, special_from, special_to, currency,
			allow_open_amount, open_amount_min, open_amount_max, giftcard_amounts, bundle_options
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, sku = EXCLUDED.sku, description = EXCLUDED.description,
			type_id = EXCLUDED.type_id, visibility = EXCLUDED.visibility,
			stock_status = EXCLUDED.stock_status, image = EXCLUDED.image,
			price = EXCLUDED.price, special_price = EXCLUDED.special_price,
			special_from = EXCLUDED.special_from, special_to = EXCLUDED.special_to,
			currency = EXCLUDED.currency, allow_open_amount = EXCLUDED.allow_open_amount,
			open_amount_min = EXCLUDED.open_amount_min, open_amount_max = EXCLUDED.open_amount_max,
			giftcard_amounts = EXCLUDED.giftcard_amounts, bundle_options = EXCLUDED.bundle_options,
			updated_at = NOW()`

	for i := range products {
		p := &products[i]
		options := p.BundleOptions
		if options == nil {
			options = []domain.BundleOption{}
		}
		bundleJSON, err := json.Marshal(options)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("marshal bundle_options of product %s: %w", p.ID, err)
		}
		amounts := p.GiftcardAmounts
		if amounts == nil {
			amounts = []int64{}
		}
		if _, err := tx.Exec(ctx, query,
			p.ID, p.Name, p.SKU, p.Description, p.TypeID, p.Visibility, p.StockStatus, p.Image,
			p.Price, p.SpecialPrice, p.SpecialFrom, p.SpecialTo, p.Currency,
			p.AllowOpenAmount, p.OpenAmountMin, p.OpenAmountMax, amounts, bundleJSON,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert products: %w", err)
	}
	return nil
}
