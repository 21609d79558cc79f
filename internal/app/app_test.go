package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/config"
	repomemory "github.com/utafrali/quicksearch/internal/repository/memory"
	"github.com/utafrali/quicksearch/internal/storefront"
)

const seedYAML = `products:
  - id: "100"
    name: Brass Hinge
    sku: BH-100
    type_id: simple
    visibility: 4
    stock_status: 1
    price: 350
    currency: USD
    image: b/h/hinge.jpg
  - id: "101"
    name: Brass Hinge Set
    sku: BH-101
    type_id: bundle
    visibility: 1
    stock_status: 1
    price: 0
    currency: USD
`

const storesYAML = `stores:
  - code: main
    name: Main Store
    locale: en-US
    currency: USD
    media_base_url: https://media.test/
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SEARCH_ENGINE", "memory")
	t.Setenv("DEFAULT_STORE", "main")
	t.Setenv("STORES_FILE", writeFile(t, "stores.yaml", storesYAML))
	t.Setenv("CATALOG_SEED_FILE", writeFile(t, "catalog.yaml", seedYAML))
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryEngineServesSeededCatalog(t *testing.T) {
	cfg := memoryConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.closeResources() })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quick-order/search?q=hinge", nil)
	w := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Items []struct {
				ID    string `json:"id"`
				Image string `json:"image"`
				Price string `json:"price"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "100", resp.Data.Items[0].ID)
	assert.Equal(t, "https://media.test/catalog/product/b/h/hinge.jpg", resp.Data.Items[0].Image)
	assert.NotEmpty(t, resp.Data.Items[0].Price)
}

func TestNewApp_MemoryEngineExposesIndexRoute(t *testing.T) {
	cfg := memoryConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.closeResources() })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quick-order/index", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(w, req)

	// Empty body reaches the handler and is rejected there.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewApp_DefaultStoreMustExist(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.DefaultStore = "missing"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewApp(context.Background(), cfg, logger)

	assert.Nil(t, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `DEFAULT_STORE "missing"`)
}

func TestNewApp_BadSeedFile(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.CatalogSeedFile = writeFile(t, "broken.yaml", "products:\n  - name: no id\n")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := NewApp(context.Background(), cfg, logger)

	assert.Nil(t, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog seed")
}

func TestExampleConfigsLoad(t *testing.T) {
	stores, err := storefront.LoadStores("../../configs/stores.example.yaml")
	require.NoError(t, err)
	assert.Len(t, stores, 3)

	_, err = storefront.NewEmulator(stores, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	products, err := repomemory.LoadCatalog("../../configs/catalog.seed.yaml")
	require.NoError(t, err)
	assert.Len(t, products, 5)
}
