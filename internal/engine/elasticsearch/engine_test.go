package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/domain"
)

// fakeCluster speaks enough of the Elasticsearch REST API for the engine.
type fakeCluster struct {
	mu          sync.Mutex
	indexExists bool
	created     bool
	searchBody  map[string]any
	bulkBody    string
	searchReply string
	searchCode  int
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		f.created = true
		f.indexExists = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.searchBody)
		if f.searchCode != 0 {
			w.WriteHeader(f.searchCode)
		}
		_, _ = io.WriteString(w, f.searchReply)
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		body, _ := io.ReadAll(r.Body)
		f.bulkBody = string(body)
		_, _ = io.WriteString(w, `{"errors":false,"items":[]}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFakeEngine(t *testing.T, cluster *fakeCluster) *Engine {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	eng, err := New(context.Background(), srv.URL, "products_test", testLogger())
	require.NoError(t, err)
	return eng
}

func quickRequest() *domain.SearchRequest {
	return &domain.SearchRequest{
		StoreID:   "default",
		Container: domain.QuickSearchContainer,
		From:      0,
		Size:      10,
		QueryText: "bag",
		Filters: map[string]domain.FilterValue{
			domain.FilterVisibility: domain.OneOf("2", "4"),
		},
	}
}

func TestNew_CreatesMissingIndex(t *testing.T) {
	cluster := &fakeCluster{}
	newFakeEngine(t, cluster)
	assert.True(t, cluster.created)
}

func TestNew_KeepsExistingIndex(t *testing.T) {
	cluster := &fakeCluster{indexExists: true}
	newFakeEngine(t, cluster)
	assert.False(t, cluster.created)
}

func TestExecute_ReturnsIDsInHitOrder(t *testing.T) {
	cluster := &fakeCluster{
		indexExists: true,
		searchReply: `{"hits":{"hits":[{"_id":"205","_score":3.1},{"_id":"101","_score":2.4}]}}`,
	}
	eng := newFakeEngine(t, cluster)

	matches, err := eng.Execute(context.Background(), quickRequest())
	require.NoError(t, err)
	assert.Equal(t, []domain.Match{{ID: "205", Score: 3.1}, {ID: "101", Score: 2.4}}, matches)

	assert.Equal(t, false, cluster.searchBody["_source"])
	assert.EqualValues(t, 10, cluster.searchBody["size"])
	assert.EqualValues(t, 0, cluster.searchBody["from"])
	assert.NotContains(t, cluster.searchBody, "sort")
}

func TestExecute_EmptyResult(t *testing.T) {
	cluster := &fakeCluster{indexExists: true, searchReply: `{"hits":{"hits":[]}}`}
	eng := newFakeEngine(t, cluster)

	matches, err := eng.Execute(context.Background(), quickRequest())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestExecute_ErrorResponse(t *testing.T) {
	cluster := &fakeCluster{
		indexExists: true,
		searchCode:  http.StatusInternalServerError,
		searchReply: `{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"},"status":500}`,
	}
	eng := newFakeEngine(t, cluster)

	_, err := eng.Execute(context.Background(), quickRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_phase_execution_exception")
}

func TestBulkIndex_WritesNDJSON(t *testing.T) {
	cluster := &fakeCluster{indexExists: true}
	eng := newFakeEngine(t, cluster)

	err := eng.BulkIndex(context.Background(), []domain.Product{
		{ID: "101", Name: "Joust Duffle Bag", SKU: "24-MB01", Visibility: 4, StockStatus: 1, Price: 3400},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(cluster.bulkBody), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"_id":"101"`)
	assert.Contains(t, lines[1], `"sku":"24-MB01"`)
	assert.NotContains(t, lines[1], "price")
}

func TestBulkIndex_Empty(t *testing.T) {
	cluster := &fakeCluster{indexExists: true}
	eng := newFakeEngine(t, cluster)

	require.NoError(t, eng.BulkIndex(context.Background(), nil))
	assert.Empty(t, cluster.bulkBody)
}

func TestDeleteIndex_MissingIsNotAnError(t *testing.T) {
	eng := newFakeEngine(t, &fakeCluster{indexExists: true})
	assert.NoError(t, eng.DeleteIndex(context.Background()))
}

func TestPing(t *testing.T) {
	eng := newFakeEngine(t, &fakeCluster{indexExists: true})
	assert.NoError(t, eng.Ping(context.Background()))
}

func TestBuildQuery(t *testing.T) {
	req := quickRequest()
	req.Filters[domain.FilterStockStatus] = domain.Term("1")

	q := buildQuery(req)

	boolQuery := q["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)
	mm := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "bag", mm["query"])

	assert.Equal(t, []any{
		map[string]any{"term": map[string]any{"stock_status": "1"}},
		map[string]any{"terms": map[string]any{"visibility": []string{"2", "4"}}},
	}, boolQuery["filter"])
}

func TestBuildQuery_BlankTextMatchesAll(t *testing.T) {
	req := quickRequest()
	req.QueryText = "   "
	req.Filters = nil
	req.SortOrders = []domain.SortOrder{{Field: "name.keyword", Direction: "ASC"}}

	q := buildQuery(req)

	boolQuery := q["query"].(map[string]any)["bool"].(map[string]any)
	assert.Contains(t, boolQuery["must"].([]any)[0], "match_all")
	assert.NotContains(t, boolQuery, "filter")
	assert.Equal(t, []any{map[string]any{"name.keyword": "asc"}}, q["sort"])
}
