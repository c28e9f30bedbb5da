package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the storefront widgets on other origins call /api/v1 with the
// cart cookie attached. An empty list allows only the local dev frontend.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	policy := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", IdempotencyHeader, requestIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{requestIDHeader, ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	return cors.Handler(policy)
}
