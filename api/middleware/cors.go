package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var devCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS allows the storefront and back-office origins. Development adds the
// local frontend ports.
func CORS(publicBaseURL string, dev bool) func(http.Handler) http.Handler {
	origins := []string{}
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		origins = append(origins, base)
	}
	if dev {
		origins = append(origins, devCORSOrigins...)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, TokenHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After", ReplayedHeader, TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
