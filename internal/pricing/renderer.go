package pricing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/storefront"
)

// Code selects a price rendering strategy.
type Code string

const (
	FinalPrice         Code = "final_price"
	ConfiguredPrice    Code = "configured_price"
	QuickOrderSubtotal Code = "quickorder_subtotal"
)

// Zone is the page area a price is rendered for.
type Zone string

const (
	ZoneItemList Zone = "item_list"
	ZoneItemView Zone = "item_view"
)

// RenderContext carries rendering options.
type RenderContext struct {
	Zone Zone
}

// CodeFor returns the strategy used for a product type.
func CodeFor(t domain.ProductType) Code {
	switch t {
	case domain.TypeBundle:
		return ConfiguredPrice
	case domain.TypeGiftcard:
		return QuickOrderSubtotal
	default:
		return FinalPrice
	}
}

// Renderer formats product prices in the locale and currency of the
// storefront environment found in the context.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a Renderer using the wall clock for special price
// windows.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Render formats the price of p using the strategy named by code.
func (r *Renderer) Render(ctx context.Context, code Code, p *domain.Product, rc RenderContext) (string, error) {
	m, err := r.moneyFor(ctx, p)
	if err != nil {
		return "", fmt.Errorf("render %s for product %s: %w", code, p.ID, err)
	}

	var out string
	switch code {
	case FinalPrice:
		out = r.renderFinal(m, p, rc)
	case ConfiguredPrice:
		out, err = renderConfigured(m, p, rc)
	case QuickOrderSubtotal:
		out, err = renderSubtotal(m, p, rc)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, code)
	}
	if err != nil {
		return "", fmt.Errorf("render %s for product %s: %w", code, p.ID, err)
	}
	return out, nil
}

// moneyFor prefers the product's own currency over the store's.
func (r *Renderer) moneyFor(ctx context.Context, p *domain.Product) (money, error) {
	env, ok := storefront.FromContext(ctx)
	if !ok {
		return money{}, domain.ErrNoEnvironment
	}
	tag, unit := env.Locale, env.Currency
	if p.Currency != "" {
		u, err := currency.ParseISO(p.Currency)
		if err != nil {
			return money{}, fmt.Errorf("%w: currency %q", domain.ErrInvalidProduct, p.Currency)
		}
		unit = u
	}
	if tag == language.Und {
		tag = language.AmericanEnglish
	}
	return newMoney(tag, unit), nil
}

// FinalAmount returns the price after an active special price.
func (r *Renderer) FinalAmount(p *domain.Product) int64 {
	if p.SpecialPrice == nil || *p.SpecialPrice >= p.Price {
		return p.Price
	}
	now := r.now()
	if p.SpecialFrom != nil && now.Before(*p.SpecialFrom) {
		return p.Price
	}
	if p.SpecialTo != nil && now.After(*p.SpecialTo) {
		return p.Price
	}
	return *p.SpecialPrice
}

func (r *Renderer) renderFinal(m money, p *domain.Product, rc RenderContext) string {
	final := r.FinalAmount(p)
	if final < p.Price && rc.Zone == ZoneItemView {
		return fmt.Sprintf("Special Price %s Regular Price %s", m.format(final), m.format(p.Price))
	}
	return m.format(final)
}

// configuredRange is the cheapest and dearest total of a bundle built from
// the fixed price plus its options.
func configuredRange(p *domain.Product) (lo, hi int64) {
	lo, hi = p.Price, p.Price
	for _, opt := range p.BundleOptions {
		if len(opt.Selections) == 0 {
			continue
		}
		var minSel, maxSel int64
		for i, s := range opt.Selections {
			qty := int64(max(s.Qty, 1))
			total := s.Price * qty
			if i == 0 || total < minSel {
				minSel = total
			}
			if i == 0 || total > maxSel {
				maxSel = total
			}
		}
		if opt.Required {
			lo += minSel
		}
		hi += maxSel
	}
	return lo, hi
}

func renderConfigured(m money, p *domain.Product, rc RenderContext) (string, error) {
	if p.Price == 0 && len(p.BundleOptions) == 0 {
		return "", fmt.Errorf("%w: bundle %s has no price and no options", domain.ErrInvalidProduct, p.ID)
	}
	lo, hi := configuredRange(p)
	switch {
	case lo == hi:
		return m.format(lo), nil
	case rc.Zone == ZoneItemList:
		return "From " + m.format(lo), nil
	default:
		return fmt.Sprintf("From %s To %s", m.format(lo), m.format(hi)), nil
	}
}

// subtotalRange spans the preset gift card amounts and, when allowed, the
// open amount bounds.
func subtotalRange(p *domain.Product) (lo, hi int64, ok bool) {
	consider := func(v int64) {
		if !ok || v < lo {
			lo = v
		}
		if !ok || v > hi {
			hi = v
		}
		ok = true
	}
	for _, a := range p.GiftcardAmounts {
		consider(a)
	}
	if p.AllowOpenAmount {
		if p.OpenAmountMin != nil {
			consider(*p.OpenAmountMin)
		}
		if p.OpenAmountMax != nil {
			consider(*p.OpenAmountMax)
		}
	}
	return lo, hi, ok
}

func renderSubtotal(m money, p *domain.Product, rc RenderContext) (string, error) {
	lo, hi, ok := subtotalRange(p)
	if !ok {
		return "", fmt.Errorf("%w: gift card %s has no amounts", domain.ErrInvalidProduct, p.ID)
	}
	switch {
	case lo == hi:
		return m.format(lo), nil
	case rc.Zone == ZoneItemList:
		return "From " + m.format(lo), nil
	default:
		return fmt.Sprintf("%s - %s", m.format(lo), m.format(hi)), nil
	}
}
