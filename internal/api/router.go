package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/config"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System     *service.SystemService
	Tax        *service.TaxService
	MarketData *service.MarketDataService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.NewCORS(cfg.CORS))

	rateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimit.Interval, cfg.RateLimit.Burst)

	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Handler)

			r.Route("/taxes", func(r chi.Router) {
				taxHandler := handlers.NewTaxHandler(services.Tax)
				r.Post("/fr", taxHandler.FrTaxes)
				r.Post("/totals", taxHandler.Totals)
				r.Post("/export", taxHandler.Export)
			})

			r.Route("/reports", func(r chi.Router) {
				reportHandler := handlers.NewReportHandler(services.Tax)
				r.Get("/", reportHandler.Reports)
				r.Route("/{reportID}", func(r chi.Router) {
					r.Use(custommiddleware.RequireReportID)
					r.Get("/", reportHandler.Report)
					r.With(custommiddleware.APIKeyMiddleware).Delete("/", reportHandler.DeleteReport)
				})
			})

			r.Route("/market", func(r chi.Router) {
				marketHandler := handlers.NewMarketHandler(services.MarketData, cfg.Scheduler.RateRefreshDays)
				r.Get("/rates", marketHandler.Rates)
				r.With(custommiddleware.APIKeyMiddleware).Post("/rates/refresh", marketHandler.RefreshRates)
				r.Get("/symbols/{symbol}/daily", marketHandler.SymbolPrices)
			})
		})
	})

	return r
}
