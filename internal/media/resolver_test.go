package media

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/storefront"
)

func TestResolveURL(t *testing.T) {
	r := NewResolver("https://cdn.example.com/media")

	tests := []struct {
		name  string
		image string
		want  string
	}{
		{"plain path", "/w/b/wb01.jpg", "https://cdn.example.com/media/catalog/product/w/b/wb01.jpg"},
		{"no leading slash", "w/b/wb02.jpg", "https://cdn.example.com/media/catalog/product/w/b/wb02.jpg"},
		{"empty image", "", "https://cdn.example.com/media/catalog/product/placeholder/small_image.jpg"},
		{"no selection", "no_selection", "https://cdn.example.com/media/catalog/product/placeholder/small_image.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveURL(context.Background(), &domain.Product{ID: "1", Image: tt.image})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL_StoreMediaBaseWins(t *testing.T) {
	em, err := storefront.NewEmulator([]storefront.Store{
		{Code: "eu", Locale: "de-DE", Currency: "EUR", MediaBaseURL: "https://eu.example.com/media/"},
	}, nil, slog.Default())
	require.NoError(t, err)
	ctx, h, err := em.Acquire(context.Background(), "eu", storefront.AreaFrontend, true)
	require.NoError(t, err)
	defer func() { _ = em.Release(h) }()

	got, err := NewResolver("https://cdn.example.com/media/").ResolveURL(ctx, &domain.Product{ID: "1", Image: "/a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://eu.example.com/media/catalog/product/a.jpg", got)
}

func TestResolveURL_NoBase(t *testing.T) {
	_, err := NewResolver("").ResolveURL(context.Background(), &domain.Product{ID: "1", Image: "/a.jpg"})
	assert.ErrorIs(t, err, ErrNoMediaBase)
}
