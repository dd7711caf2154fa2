package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/cors"
)

// corsMiddleware builds the CORS handler from the ALLOWED_ORIGINS env var
// (comma separated, "*" default), wrapped as chi middleware.
func corsMiddleware() func(http.Handler) http.Handler {
	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = strings.Split(raw, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	return c.Handler
}
