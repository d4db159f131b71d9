package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the configured origin list; an empty list or "*" allows any
// origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, CartIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{CartIDHeader, requestIDHeader, "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
