package seed

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/domain"
)

var anchor = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(Options{Count: 50, Seed: 42, Now: anchor})
	b := Generate(Options{Count: 50, Seed: 42, Now: anchor})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Generate(Options{Count: 50, Seed: 7, Now: anchor}))
}

func TestGenerate_ProductsAreWellFormed(t *testing.T) {
	products := Generate(Options{Count: 500, Seed: 42, Now: anchor, Currency: "EUR"})
	require.Len(t, products, 500)

	ids := make(map[string]struct{}, len(products))
	skus := make(map[string]struct{}, len(products))
	types := make(map[domain.ProductType]int)
	for _, p := range products {
		_, err := uuid.Parse(p.ID)
		require.NoError(t, err, p.ID)
		ids[p.ID] = struct{}{}
		skus[p.SKU] = struct{}{}
		types[p.TypeID]++

		assert.NotEmpty(t, p.Name)
		assert.Equal(t, "EUR", p.Currency)
		assert.GreaterOrEqual(t, p.Visibility, domain.VisibilityNotVisible)
		assert.LessOrEqual(t, p.Visibility, domain.VisibilityBoth)

		switch p.TypeID {
		case domain.TypeBundle:
			assert.NotEmpty(t, p.BundleOptions)
			assert.True(t, p.BundleOptions[0].Required)
		case domain.TypeGiftcard:
			assert.NotEmpty(t, p.GiftcardAmounts)
			assert.Empty(t, p.Image)
		default:
			assert.Positive(t, p.Price)
		}
		if p.SpecialPrice != nil {
			assert.Less(t, *p.SpecialPrice, p.Price)
			require.NotNil(t, p.SpecialFrom)
			require.NotNil(t, p.SpecialTo)
			assert.True(t, p.SpecialFrom.Before(anchor) && p.SpecialTo.After(anchor))
		}
	}
	assert.Len(t, ids, 500)
	assert.Len(t, skus, 500)
	assert.Positive(t, types[domain.TypeSimple])
	assert.Positive(t, types[domain.TypeBundle])
}

func TestDeterministicID(t *testing.T) {
	assert.Equal(t, deterministicID("ns", 1), deterministicID("ns", 1))
	assert.NotEqual(t, deterministicID("ns", 1), deterministicID("ns", 2))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "zip-up-navy-trench-coat", slugify("Zip-Up Navy Trench Coat"))
}
