// Package seed generates deterministic product catalogs for local
// development and load testing.
package seed

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/quicksearch/internal/domain"
)

// Options controls catalog generation.
type Options struct {
	Count    int
	Seed     uint64
	Currency string
	// Now anchors special price windows.
	Now time.Time
}

// typeShare is the share of generated products per type; shares sum to 1.
type typeShare struct {
	typ    domain.ProductType
	weight float64
}

var typeShares = []typeShare{
	{domain.TypeSimple, 0.55},
	{domain.TypeConfigurable, 0.20},
	{domain.TypeVirtual, 0.05},
	{domain.TypeDownloadable, 0.05},
	{domain.TypeBundle, 0.10},
	{domain.TypeGiftcard, 0.05},
}

var prefixes = []string{
	"Plain", "Floral", "Polka Dot", "Striped", "Embroidered",
	"Lace Trim", "Pleated", "Belted", "Buttoned", "Zip-Up",
	"Satin", "Velvet", "Knit", "Woven", "Printed",
}

var nouns = map[domain.ProductType][]string{
	domain.TypeSimple:       {"Tunic", "Blouse", "Scarf", "Belt", "Skirt", "Cardigan"},
	domain.TypeConfigurable: {"Dress", "Coat", "Trench Coat", "Jacket", "Trousers"},
	domain.TypeVirtual:      {"Styling Session", "Alteration Service"},
	domain.TypeDownloadable: {"Sewing Pattern", "Lookbook"},
	domain.TypeBundle:       {"Outfit Set", "Scarf Trio", "Accessory Kit"},
	domain.TypeGiftcard:     {"Gift Card"},
}

var colors = []string{
	"Black", "Navy", "Plum", "Ecru", "Pink", "Grey", "Khaki",
	"Burgundy", "Blue", "Beige", "Red", "Green", "Brown", "Cream",
}

var descriptions = []string{
	"Comfortable %s for everyday wear, made from durable fabric.",
	"An elegant %s that works in every season. Easy to wash and iron.",
	"Modern cut %s with refined details. Combine it with anything.",
	"%s crafted from carefully selected fabrics with neat stitching.",
}

// Generate returns opts.Count products. The same options always produce the
// same catalog.
func Generate(opts Options) []domain.Product {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)) // #nosec G404 -- fixtures only

	products := make([]domain.Product, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		typ := pickType(rng)
		products = append(products, generateProduct(rng, i, typ, opts))
	}
	return products
}

func pickType(rng *rand.Rand) domain.ProductType {
	r := rng.Float64()
	var acc float64
	for _, s := range typeShares {
		acc += s.weight
		if r < acc {
			return s.typ
		}
	}
	return domain.TypeSimple
}

func generateProduct(rng *rand.Rand, idx int, typ domain.ProductType, opts Options) domain.Product {
	kinds := nouns[typ]
	noun := kinds[rng.IntN(len(kinds))]
	color := colors[rng.IntN(len(colors))]
	name := fmt.Sprintf("%s %s %s", prefixes[rng.IntN(len(prefixes))], color, noun)
	slug := slugify(name)

	p := domain.Product{
		ID:          deterministicID("quicksearch-product", idx),
		Name:        name,
		SKU:         fmt.Sprintf("%s-%05d", skuPrefix(typ), idx),
		Description: fmt.Sprintf(descriptions[rng.IntN(len(descriptions))], strings.ToLower(noun)),
		TypeID:      typ,
		Visibility:  pickVisibility(rng),
		StockStatus: domain.StockInStock,
		Image:       fmt.Sprintf("%c/%c/%s.jpg", slug[0], slug[1], slug),
		Price:       roundPrice(990 + rng.Int64N(49000)),
		Currency:    opts.Currency,
	}
	if rng.IntN(10) == 0 {
		p.StockStatus = domain.StockOutOfStock
	}
	switch typ {
	case domain.TypeBundle:
		p.Price = 0
		p.BundleOptions = bundleOptions(rng)
	case domain.TypeGiftcard:
		p.Price = 0
		p.Image = ""
		p.GiftcardAmounts = []int64{2500, 5000, 10000}
		if rng.IntN(2) == 0 {
			lo, hi := int64(1000), int64(50000)
			p.AllowOpenAmount, p.OpenAmountMin, p.OpenAmountMax = true, &lo, &hi
		}
	}

	if p.Price > 0 && rng.IntN(8) == 0 {
		special := roundPrice(p.Price * 8 / 10)
		from := opts.Now.Add(-24 * time.Hour)
		to := opts.Now.Add(7 * 24 * time.Hour)
		p.SpecialPrice, p.SpecialFrom, p.SpecialTo = &special, &from, &to
	}
	return p
}

func bundleOptions(rng *rand.Rand) []domain.BundleOption {
	n := 2 + rng.IntN(2)
	opts := make([]domain.BundleOption, 0, n)
	for i := 0; i < n; i++ {
		opt := domain.BundleOption{
			Title:    fmt.Sprintf("Option %d", i+1),
			Required: i == 0 || rng.IntN(2) == 0,
		}
		for j := 0; j < 3; j++ {
			opt.Selections = append(opt.Selections, domain.BundleSelection{
				Name:      fmt.Sprintf("%s Item %d", colors[rng.IntN(len(colors))], j+1),
				Price:     roundPrice(500 + rng.Int64N(9500)),
				Qty:       1,
				IsDefault: j == 0,
			})
		}
		opts = append(opts, opt)
	}
	return opts
}

// pickVisibility leaves about one product in ten hidden from the catalog.
func pickVisibility(rng *rand.Rand) int {
	switch r := rng.IntN(20); {
	case r < 1:
		return domain.VisibilityNotVisible
	case r < 2:
		return domain.VisibilityInSearch
	case r < 6:
		return domain.VisibilityInCatalog
	default:
		return domain.VisibilityBoth
	}
}

func roundPrice(minor int64) int64 {
	return (minor/100)*100 + 99
}

func skuPrefix(t domain.ProductType) string {
	return strings.ToUpper(string(t)[:3])
}

// deterministicID produces a stable name-based UUID so re-runs upsert the
// same rows.
func deterministicID(namespace string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", namespace, index))).String()
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
