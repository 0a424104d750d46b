package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/config"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/database"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/ecb"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/encryption"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/logging"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/version"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/yahoo"
)

// refreshJobTimeout bounds one scheduled rate refresh.
const refreshJobTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	}))

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("path", cfg.Database.Path).Str("version", version.Version).Msg("connected to database")

	// Create repositories
	rateRepo := repository.NewExchangeRateRepository(db)
	priceRepo := repository.NewSymbolPriceRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var sealer *encryption.Sealer
	if cfg.Security.ReportKey != "" {
		sealer, err = encryption.NewSealer(strings.Split(cfg.Security.ReportKey, ",")...)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REPORT_ENCRYPTION_KEY")
		}
	} else {
		log.Warn().Msg("REPORT_ENCRYPTION_KEY is not set, saving reports is disabled")
	}
	if cfg.Security.APIKey == "" {
		log.Warn().Msg("INTERNAL_API_KEY is not set, protected endpoints will refuse requests")
	}

	// Create services
	marketDataService := service.NewMarketDataService(
		rateRepo,
		priceRepo,
		ecb.NewClient(cfg.Market.ECBBaseURL, cfg.Market.RequestTimeout),
		yahoo.NewFinanceClient(cfg.Market.YahooBaseURL, cfg.Market.RequestTimeout),
		cfg.Market.PriceCacheTTL,
		cfg.Market.FetchConcurrency,
	)
	taxService := service.NewTaxService(reportRepo, marketDataService, sealer)
	systemService := service.NewSystemService(db, rateRepo, map[string]bool{
		"reports":   sealer != nil,
		"scheduler": cfg.Scheduler.Enabled,
	})

	var scheduler *service.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = service.NewScheduler(marketDataService, cfg.Scheduler.RateRefreshSpec, cfg.Scheduler.RateRefreshDays, refreshJobTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scheduler")
		}
		scheduler.Start()
	}

	router := api.NewRouter(api.Services{
		System:     systemService,
		Tax:        taxService,
		MarketData: marketDataService,
	}, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}
