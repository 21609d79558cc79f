// Package media builds public image URLs for catalog products.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/storefront"
)

const (
	productPath = "catalog/product/"
	// PlaceholderImage is served for products without an image.
	PlaceholderImage = productPath + "placeholder/small_image.jpg"

	noSelection = "no_selection"
)

// ErrNoMediaBase is returned when neither the storefront nor the resolver
// knows where media is served from.
var ErrNoMediaBase = errors.New("no media base url configured")

// Resolver turns product image paths into absolute URLs.
type Resolver struct {
	defaultBase string
}

// NewResolver returns a Resolver that falls back to defaultBase when the
// storefront environment has no media base URL of its own.
func NewResolver(defaultBase string) *Resolver {
	return &Resolver{defaultBase: defaultBase}
}

// ResolveURL returns the small image URL of p.
func (r *Resolver) ResolveURL(ctx context.Context, p *domain.Product) (string, error) {
	base := r.defaultBase
	if env, ok := storefront.FromContext(ctx); ok && env.MediaBaseURL != "" {
		base = env.MediaBaseURL
	}
	if base == "" {
		return "", ErrNoMediaBase
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse media base url: %w", err)
	}

	image := strings.TrimLeft(p.Image, "/")
	if image == "" || image == noSelection {
		return baseURL.JoinPath(PlaceholderImage).String(), nil
	}
	return baseURL.JoinPath(productPath, image).String(), nil
}
