package elasticsearch

import (
	"slices"
	"strings"

	"github.com/utafrali/quicksearch/internal/domain"
)

var searchFields = []string{"name^3", "name.autocomplete^2", "sku^4", "sku.text^2", "description"}

// buildQuery renders req as query DSL. Documents are not returned, only
// their IDs and scores.
func buildQuery(req *domain.SearchRequest) map[string]any {
	var must any
	if strings.TrimSpace(req.QueryText) != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":         req.QueryText,
				"fields":        searchFields,
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	} else {
		must = map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{
		"must": []any{must},
	}
	if filters := buildFilters(req.Filters); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	q := map[string]any{
		"query":   map[string]any{"bool": boolQuery},
		"from":    req.From,
		"size":    req.Size,
		"_source": false,
	}
	if len(req.SortOrders) > 0 {
		sort := make([]any, 0, len(req.SortOrders))
		for _, o := range req.SortOrders {
			sort = append(sort, map[string]any{o.Field: strings.ToLower(o.Direction)})
		}
		q["sort"] = sort
	}
	return q
}

// buildFilters emits a term clause for scalar values and a terms clause for
// sets, ordered by field name.
func buildFilters(filters map[string]domain.FilterValue) []any {
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	out := make([]any, 0, len(fields))
	for _, f := range fields {
		v := filters[f]
		if v.IsSet() {
			out = append(out, map[string]any{"terms": map[string]any{f: v.Terms()}})
			continue
		}
		out = append(out, map[string]any{"term": map[string]any{f: v.Scalar()}})
	}
	return out
}
