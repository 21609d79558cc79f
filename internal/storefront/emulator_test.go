package storefront

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/utafrali/quicksearch/internal/domain"
)

func testStores() []Store {
	return []Store{
		{Code: "default", Locale: "en-US", Currency: "USD", MediaBaseURL: "https://cdn.example.com/media/"},
		{Code: "de", Locale: "de-DE", Currency: "EUR", MediaBaseURL: "https://cdn.example.de/media/"},
	}
}

func newTestEmulator(t *testing.T) (*Emulator, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	e, err := NewEmulator(testStores(), reg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return e, reg
}

func TestEmulator_AcquireCarriesEnvironment(t *testing.T) {
	e, _ := newTestEmulator(t)
	base := context.Background()

	ctx, h, err := e.Acquire(base, "de", AreaFrontend, true)
	require.NoError(t, err)
	defer func() { _ = e.Release(h) }()

	env, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "de", env.Store)
	assert.Equal(t, AreaFrontend, env.Area)
	assert.Equal(t, language.MustParse("de-DE"), env.Locale)
	assert.Equal(t, currency.EUR, env.Currency)
	assert.Equal(t, "https://cdn.example.de/media/", env.MediaBaseURL)
	assert.Nil(t, env.Parent)

	_, ok = FromContext(base)
	assert.False(t, ok, "parent context must not see the environment")
}

func TestEmulator_NestedScopes(t *testing.T) {
	e, _ := newTestEmulator(t)

	outer, h1, err := e.Acquire(context.Background(), "default", AreaFrontend, true)
	require.NoError(t, err)
	shared, h2, err := e.Acquire(outer, "de", AreaFrontend, false)
	require.NoError(t, err)
	isolated, h3, err := e.Acquire(outer, "de", AreaFrontend, true)
	require.NoError(t, err)

	env, _ := FromContext(shared)
	require.NotNil(t, env.Parent)
	assert.Equal(t, "default", env.Parent.Store)

	env, _ = FromContext(isolated)
	assert.Nil(t, env.Parent)

	for _, h := range []*Handle{h3, h2, h1} {
		require.NoError(t, e.Release(h))
	}
}

func TestEmulator_UnknownStore(t *testing.T) {
	e, _ := newTestEmulator(t)

	ctx, h, err := e.Acquire(context.Background(), "fr", AreaFrontend, true)
	require.ErrorIs(t, err, domain.ErrUnknownStore)
	assert.Nil(t, h)
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.Zero(t, e.Active())
}

func TestEmulator_ReleaseTwiceFails(t *testing.T) {
	e, reg := newTestEmulator(t)

	_, h, err := e.Acquire(context.Background(), "default", AreaFrontend, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.gauge))

	require.NoError(t, e.Release(h))
	assert.ErrorIs(t, e.Release(h), domain.ErrScopeReleased)
	assert.Error(t, e.Release(nil))
	assert.Zero(t, e.Active())

	n, err := testutil.GatherAndCount(reg, "quicksearch_environment_scopes_active")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEmulator_ConcurrentScopesDoNotInterfere(t *testing.T) {
	e, _ := newTestEmulator(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		store := "default"
		if i%2 == 0 {
			store = "de"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, h, err := e.Acquire(context.Background(), store, AreaFrontend, true)
			if !assert.NoError(t, err) {
				return
			}
			env, _ := FromContext(ctx)
			assert.Equal(t, store, env.Store)
			assert.NoError(t, e.Release(h))
		}()
	}
	wg.Wait()
	assert.Zero(t, e.Active())
}

func TestNewEmulator_RejectsInvalidStores(t *testing.T) {
	tests := []struct {
		name   string
		stores []Store
	}{
		{"missing code", []Store{{Locale: "en-US", Currency: "USD"}}},
		{"bad locale", []Store{{Code: "x", Locale: "not a locale!", Currency: "USD"}}},
		{"bad currency", []Store{{Code: "x", Locale: "en-US", Currency: "DOLLARS"}}},
		{"duplicate", append(testStores(), testStores()[0])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmulator(tt.stores, nil, slog.Default())
			assert.Error(t, err)
		})
	}
}

func TestLoadStores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stores:
  - code: default
    name: Main Website
    locale: en-US
    currency: USD
    media_base_url: https://cdn.example.com/media/
  - code: de
    locale: de-DE
    currency: EUR
`), 0o600))

	stores, err := LoadStores(path)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "Main Website", stores[0].Name)
	assert.Equal(t, "EUR", stores[1].Currency)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("stores: []\n"), 0o600))
	_, err = LoadStores(empty)
	assert.Error(t, err)

	_, err = LoadStores(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
