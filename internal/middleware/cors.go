package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured frontend origin. In development every origin
// is allowed and credentials are switched off.
func CORS(frontendURL string, development bool) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: []string{frontendURL},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if development || frontendURL == "" {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}

	return cors.Handler(opts)
}
