package httpapi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsMiddleware builds the CORS handler from the SetCORSOptions settings.
// Unset lists fall back to any origin, the methods the API serves and the
// Content-Type header.
func corsMiddleware() func(http.Handler) http.Handler {
	origins := corsAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type", "X-Log-Level"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
