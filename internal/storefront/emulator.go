package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/utafrali/quicksearch/internal/domain"
)

// Area is the application area an environment is emulated for.
type Area string

const (
	AreaFrontend Area = "frontend"
	AreaAdmin    Area = "adminhtml"
)

// Environment is the storefront state visible to code running inside an
// acquired scope. It is immutable and travels in the context.
type Environment struct {
	Store        string
	Area         Area
	Locale       language.Tag
	Currency     currency.Unit
	MediaBaseURL string
	// Parent is the enclosing environment of a non-isolated scope.
	Parent *Environment
}

type envKey struct{}

// FromContext returns the environment of the innermost acquired scope.
func FromContext(ctx context.Context) (*Environment, bool) {
	env, ok := ctx.Value(envKey{}).(*Environment)
	return env, ok
}

// Handle identifies one acquired scope. Release it exactly once.
type Handle struct {
	id       uint64
	store    string
	released atomic.Bool
}

// Store returns the store code the handle was acquired for.
func (h *Handle) Store() string { return h.store }

type resolvedStore struct {
	store    Store
	locale   language.Tag
	currency currency.Unit
}

// Emulator hands out storefront environments for the configured stores.
type Emulator struct {
	stores map[string]resolvedStore
	logger *slog.Logger
	nextID atomic.Uint64
	active atomic.Int64
	gauge  prometheus.Gauge
}

// NewEmulator validates stores and registers the active-scope gauge with reg
// (nil skips registration).
func NewEmulator(stores []Store, reg prometheus.Registerer, logger *slog.Logger) (*Emulator, error) {
	e := &Emulator{
		stores: make(map[string]resolvedStore, len(stores)),
		logger: logger,
		gauge: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "quicksearch_environment_scopes_active",
			Help: "Storefront environment scopes currently acquired.",
		}),
	}
	for _, s := range stores {
		tag, unit, err := s.resolve()
		if err != nil {
			return nil, err
		}
		if _, dup := e.stores[s.Code]; dup {
			return nil, fmt.Errorf("duplicate store code %q", s.Code)
		}
		e.stores[s.Code] = resolvedStore{store: s, locale: tag, currency: unit}
	}
	return e, nil
}

// Has reports whether storeID is configured.
func (e *Emulator) Has(storeID string) bool {
	_, ok := e.stores[storeID]
	return ok
}

// Active returns the number of scopes acquired and not yet released.
func (e *Emulator) Active() int64 {
	return e.active.Load()
}

// Acquire starts an emulated environment for storeID. The returned context
// carries the environment; ctx itself is left untouched. A non-isolated
// scope records the environment it was nested in as its Parent.
func (e *Emulator) Acquire(ctx context.Context, storeID string, area Area, isolated bool) (context.Context, *Handle, error) {
	rs, ok := e.stores[storeID]
	if !ok {
		return ctx, nil, fmt.Errorf("acquire environment for %q: %w", storeID, domain.ErrUnknownStore)
	}

	env := &Environment{
		Store:        storeID,
		Area:         area,
		Locale:       rs.locale,
		Currency:     rs.currency,
		MediaBaseURL: rs.store.MediaBaseURL,
	}
	if parent, nested := FromContext(ctx); nested && !isolated {
		env.Parent = parent
	}

	h := &Handle{id: e.nextID.Add(1), store: storeID}
	e.active.Add(1)
	e.gauge.Inc()

	e.logger.DebugContext(ctx, "environment acquired",
		slog.Uint64("scope_id", h.id),
		slog.String("store", storeID),
		slog.String("area", string(area)),
		slog.Bool("isolated", isolated),
	)
	return context.WithValue(ctx, envKey{}, env), h, nil
}

// Release ends the scope. Releasing a nil or already released handle is an
// error.
func (e *Emulator) Release(h *Handle) error {
	if h == nil {
		return fmt.Errorf("release environment: nil handle")
	}
	if !h.released.CompareAndSwap(false, true) {
		return fmt.Errorf("release environment scope %d: %w", h.id, domain.ErrScopeReleased)
	}
	e.active.Add(-1)
	e.gauge.Dec()
	e.logger.Debug("environment released", slog.Uint64("scope_id", h.id), slog.String("store", h.store))
	return nil
}
