package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plywoodshop/storefront/pkg/metrics"
)

// Metrics records request count and latency by chi route pattern so that
// path parameters do not explode label cardinality.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			pattern := routePattern(r)
			if pattern == r.URL.Path && rec.Status() == http.StatusNotFound {
				pattern = "unmatched"
			}
			m.ObserveHTTP(r.Method, pattern, rec.Status(), time.Since(start))
		})
	}
}

// routePattern falls back to the raw path when chi has not matched a route.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
