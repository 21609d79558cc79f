package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utafrali/quicksearch/internal/domain"
	"github.com/utafrali/quicksearch/internal/pricing"
	"github.com/utafrali/quicksearch/internal/storefront"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIndex struct {
	mu      sync.Mutex
	matches []domain.Match
	err     error
	block   bool
	calls   int
	lastReq *domain.SearchRequest
}

func (f *fakeIndex) Execute(ctx context.Context, req *domain.SearchRequest) ([]domain.Match, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.matches), nil
}

func matchesOf(ids ...string) []domain.Match {
	out := make([]domain.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Match{ID: id})
	}
	return out
}

// fakeStore returns products in fetchOrder when set, otherwise in the
// reverse of the requested order.
type fakeStore struct {
	products       map[string]domain.Product
	fetchOrder     []string
	err            error
	calls          int
	lastIDs        []string
	lastProjection []string
	lastVisibility []int
}

func newFakeStore(products ...domain.Product) *fakeStore {
	s := &fakeStore{products: make(map[string]domain.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (f *fakeStore) FetchByIDs(_ context.Context, ids []string, projection []string, visibility []int) ([]domain.Product, error) {
	f.calls++
	f.lastIDs = slices.Clone(ids)
	f.lastProjection = projection
	f.lastVisibility = visibility
	if f.err != nil {
		return nil, f.err
	}

	order := f.fetchOrder
	if order == nil {
		order = slices.Clone(ids)
		slices.Reverse(order)
	}
	var out []domain.Product
	seen := map[string]bool{}
	for _, id := range order {
		p, ok := f.products[id]
		if !ok || seen[id] || !slices.Contains(ids, id) {
			continue
		}
		if len(visibility) > 0 && !slices.Contains(visibility, p.Visibility) {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out, nil
}

type renderCall struct {
	ProductID string
	Code      pricing.Code
	Zone      pricing.Zone
}

type fakePrices struct {
	mu      sync.Mutex
	failFor map[string]bool
	panicOn string
	calls   []renderCall
}

func (f *fakePrices) Render(ctx context.Context, code pricing.Code, p *domain.Product, rc pricing.RenderContext) (string, error) {
	if _, ok := storefront.FromContext(ctx); !ok {
		return "", domain.ErrNoEnvironment
	}
	f.mu.Lock()
	f.calls = append(f.calls, renderCall{ProductID: p.ID, Code: code, Zone: rc.Zone})
	f.mu.Unlock()
	if p.ID == f.panicOn {
		panic("renderer exploded")
	}
	if f.failFor[p.ID] {
		return "", errors.New("no price index row")
	}
	return "$" + p.ID, nil
}

type fakeImages struct {
	failFor map[string]bool
}

func (f *fakeImages) ResolveURL(_ context.Context, p *domain.Product) (string, error) {
	if f.failFor[p.ID] {
		return "", errors.New("media storage offline")
	}
	return "https://cdn.test/" + p.ID + ".jpg", nil
}

type fakeRecorder struct {
	records []SearchRecord
	err     error
}

func (f *fakeRecorder) RecordSearch(_ context.Context, rec SearchRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func newTestEmulator(t *testing.T) *storefront.Emulator {
	t.Helper()
	em, err := storefront.NewEmulator([]storefront.Store{
		{Code: "default", Locale: "en-US", Currency: "USD", MediaBaseURL: "https://cdn.test/"},
		{Code: "fr", Locale: "fr-FR", Currency: "EUR"},
	}, nil, discardLogger())
	require.NoError(t, err)
	return em
}
