package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/quicksearch/pkg/logger"
)

// StoreParam is the query parameter naming the storefront a request targets.
const StoreParam = "store"

// RequestLogger stores a request-scoped logger in the context carrying
// correlation_id, store_code, trace_id and span_id. Mount it after
// RequestLogging and Tracing so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if store := r.URL.Query().Get(StoreParam); store != "" {
				ctx = logger.WithStoreCode(ctx, store)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
