package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/ecb"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/encryption"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/yahoo"
)

// TestNow is the fixed clock used by test services.
var TestNow = time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)

// NewTestMarketDataService creates a MarketDataService backed by db and the
// given clients, with its clock set to TestNow.
func NewTestMarketDataService(t *testing.T, db *sql.DB, rates ecb.RateFetcher, prices yahoo.Client) *service.MarketDataService {
	t.Helper()

	if rates == nil {
		rates = NewMockECBClient(nil)
	}
	if prices == nil {
		prices = NewMockYahooClient()
	}

	return service.NewMarketDataService(
		repository.NewExchangeRateRepository(db),
		repository.NewSymbolPriceRepository(db),
		rates,
		prices,
		time.Hour,
		4,
	).WithClock(func() time.Time { return TestNow })
}

// NewTestTaxService creates a TaxService with a fresh encryption key.
func NewTestTaxService(t *testing.T, db *sql.DB, marketData service.MarketDataProvider) *service.TaxService {
	t.Helper()

	return service.NewTaxService(repository.NewReportRepository(db), marketData, NewTestSealer(t))
}

// NewTestSealer creates a sealer with a random key.
func NewTestSealer(t *testing.T) *encryption.Sealer {
	t.Helper()

	key, err := encryption.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	sealer, err := encryption.NewSealer(key)
	if err != nil {
		t.Fatalf("Failed to create sealer: %v", err)
	}
	return sealer
}

// NewTestSystemService creates a SystemService for testing.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, repository.NewExchangeRateRepository(db), map[string]bool{"reports": true})
}

// MakeID generates a unique ID for testing.
func MakeID() string {
	return uuid.New().String()
}
