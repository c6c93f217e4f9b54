package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS opens the dashboard's JSON endpoints to the configured origins.
// Credentials are allowed so the session cookies travel with the call.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
