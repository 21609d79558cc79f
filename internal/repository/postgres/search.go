package postgres

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/pkg/database"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchIndex is the relational fallback for the search index. Every query
// token must occur in the name, SKU or description. Visibility is filtered
// before LIMIT so hidden rows never take a result slot; the entity store
// checks it again when products are fetched.
type SearchIndex struct {
	db database.DBTX
}

// NewSearchIndex creates a fallback search over the products table.
func NewSearchIndex(db database.DBTX) *SearchIndex {
	return &SearchIndex{db: db}
}

type queryBuilder struct {
	where []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) filter(field string, v domain.FilterValue) error {
	switch field {
	case domain.FilterVisibility, domain.FilterStockStatus:
		codes, err := intTerms(v.Terms())
		if err != nil {
			return fmt.Errorf("filter %s: %w", field, err)
		}
		b.where = append(b.where, field+" = ANY("+b.arg(codes)+")")
	case domain.FilterTypeID, domain.FilterSKU:
		b.where = append(b.where, field+" = ANY("+b.arg(v.Terms())+")")
	default:
		return fmt.Errorf("unsupported filter %q", field)
	}
	return nil
}

func intTerms(terms []string) ([]int, error) {
	out := make([]int, 0, len(terms))
	for _, t := range terms {
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// buildSearchQuery returns the statement and its arguments. Exact SKU hits
// rank first, then name hits, then the rest; ties break on name and id.
func buildSearchQuery(req *domain.SearchRequest) (string, []any, error) {
	var b queryBuilder

	tokens := strings.Fields(req.QueryText)
	for _, tok := range tokens {
		p := b.arg("%" + likeEscaper.Replace(tok) + "%")
		b.where = append(b.where, "(name ILIKE "+p+" OR sku ILIKE "+p+" OR description ILIKE "+p+")")
	}

	fields := make([]string, 0, len(req.Filters))
	for f := range req.Filters {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	for _, f := range fields {
		if err := b.filter(f, req.Filters[f]); err != nil {
			return "", nil, err
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT id FROM products")
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}

	sb.WriteString(" ORDER BY ")
	if len(tokens) > 0 {
		sku := b.arg(strings.TrimSpace(req.QueryText))
		first := b.arg("%" + likeEscaper.Replace(tokens[0]) + "%")
		sb.WriteString("CASE WHEN lower(sku) = lower(" + sku + ") THEN 0 WHEN name ILIKE " + first + " THEN 1 ELSE 2 END, ")
	}
	sb.WriteString("name, id")

	if req.Size > 0 {
		sb.WriteString(" LIMIT " + b.arg(req.Size))
	}
	if req.From > 0 {
		sb.WriteString(" OFFSET " + b.arg(req.From))
	}
	return sb.String(), b.args, nil
}

// Execute returns matching product ids. Scores are not computed.
func (s *SearchIndex) Execute(ctx context.Context, req *domain.SearchRequest) (matches []domain.Match, err error) {
	query, args, err := buildSearchQuery(req)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "SELECT", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	matches = make([]domain.Match, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		matches = append(matches, domain.Match{ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return matches, nil
}
