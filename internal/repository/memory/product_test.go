package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/repository"
)

func sampleStore() *ProductStore {
	return NewProductStore(
		domain.Product{ID: "101", Name: "Joust Duffle Bag", SKU: "24-MB01", Description: "Roomy", Visibility: 4, Price: 3400},
		domain.Product{ID: "102", Name: "Strive Shoulder Pack", SKU: "24-MB04", Visibility: 1, Price: 3200},
		domain.Product{ID: "205", Name: "Sprite Yoga Kit", SKU: "24-WG080", Visibility: 2, TypeID: domain.TypeBundle},
	)
}

func TestProductStore_FetchByIDs(t *testing.T) {
	s := sampleStore()

	got, err := s.FetchByIDs(context.Background(), []string{"205", "999", "101", "205"}, repository.QuickSearchProjection(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "205", got[0].ID)
	assert.Equal(t, domain.TypeBundle, got[0].TypeID)
	assert.Equal(t, "101", got[1].ID)
	assert.Equal(t, int64(3400), got[1].Price)
	assert.Empty(t, got[1].Description, "description is not projected")
	assert.Zero(t, got[1].Visibility, "visibility is not projected")
}

func TestProductStore_FetchByIDs_Visibility(t *testing.T) {
	got, err := sampleStore().FetchByIDs(context.Background(), []string{"101", "102", "205"}, []string{repository.AttrName}, []int{2, 4})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "101", got[0].ID)
	assert.Equal(t, "205", got[1].ID)
}

func TestProductStore_FetchByIDs_Errors(t *testing.T) {
	_, err := sampleStore().FetchByIDs(context.Background(), []string{"101"}, []string{"weight"}, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sampleStore().FetchByIDs(ctx, []string{"101"}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProductStore_Put(t *testing.T) {
	s := NewProductStore()
	require.NoError(t, s.Put(context.Background(), []domain.Product{{ID: "1", Name: "First"}}))
	require.NoError(t, s.Put(context.Background(), []domain.Product{{ID: "1", Name: "Renamed"}}))

	got, err := s.FetchByIDs(context.Background(), []string{"1"}, []string{repository.AttrName}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Renamed", got[0].Name)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - id: "101"
    name: Joust Duffle Bag
    sku: 24-MB01
    type_id: simple
    visibility: 4
    stock_status: 1
    price: 3400
    currency: USD
  - id: "400"
    name: Gift Card
    sku: GC-1
    type_id: giftcard
    visibility: 4
    allow_open_amount: true
    open_amount_min: 1000
    giftcard_amounts: [2500, 5000]
`), 0o600))

	products, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.TypeSimple, products[0].TypeID)
	assert.Equal(t, int64(3400), products[0].Price)
	require.NotNil(t, products[1].OpenAmountMin)
	assert.Equal(t, int64(1000), *products[1].OpenAmountMin)
	assert.Equal(t, []int64{2500, 5000}, products[1].GiftcardAmounts)

	require.NoError(t, os.WriteFile(path, []byte("products:\n  - name: nameless\n"), 0o600))
	_, err = LoadCatalog(path)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
