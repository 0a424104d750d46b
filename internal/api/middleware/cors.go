package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/config"
)

// NewCORS returns the CORS handler for the API. Browsers need the API key and
// time token headers allowed on preflight, and Content-Disposition exposed to
// name a downloaded CSV export.
func NewCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			apiKeyHeader,
			timeTokenHeader,
		},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           int(cfg.MaxAge.Seconds()),
	})
}
