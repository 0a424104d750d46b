package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
)

// SaleEventBuilder provides a fluent interface for creating sale events.
type SaleEventBuilder struct {
	event model.SaleEvent
}

// NewSaleEvent creates a builder for a FR-qualified RSU sale of 10 shares
// acquired on 2022-03-03 and sold on 2022-09-09.
//
// Example usage:
//
//	event := testutil.NewSaleEvent().
//	    WithPlan(model.PlanTypeSO, model.QualifiedUS).
//	    WithProceeds(120).
//	    Build()
func NewSaleEvent() *SaleEventBuilder {
	return &SaleEventBuilder{
		event: model.SaleEvent{
			Symbol:       "DDOG",
			PlanType:     model.PlanTypeRS,
			Quantity:     10,
			DateAcquired: "2022-03-03",
			DateSold:     "2022-09-09",
			Proceeds:     100,
			AdjustedCost: 80,
			QualifiedIn:  model.QualifiedFR,
		},
	}
}

// WithSymbol sets the symbol.
func (b *SaleEventBuilder) WithSymbol(symbol string) *SaleEventBuilder {
	b.event.Symbol = symbol
	return b
}

// WithPlan sets the plan type and its qualification.
func (b *SaleEventBuilder) WithPlan(plan model.PlanType, qualified model.Qualification) *SaleEventBuilder {
	b.event.PlanType = plan
	b.event.QualifiedIn = qualified
	return b
}

// WithQuantity sets the number of shares sold.
func (b *SaleEventBuilder) WithQuantity(quantity float64) *SaleEventBuilder {
	b.event.Quantity = quantity
	return b
}

// WithDates sets the acquisition and sale dates.
func (b *SaleEventBuilder) WithDates(acquired, sold string) *SaleEventBuilder {
	b.event.DateAcquired = acquired
	b.event.DateSold = sold
	return b
}

// WithProceeds sets the sale price per share.
func (b *SaleEventBuilder) WithProceeds(proceeds float64) *SaleEventBuilder {
	b.event.Proceeds = proceeds
	return b
}

// WithAdjustedCost sets the adjusted cost basis per share.
func (b *SaleEventBuilder) WithAdjustedCost(cost float64) *SaleEventBuilder {
	b.event.AdjustedCost = cost
	return b
}

// WithAcquisitionCost sets the out-of-pocket cost per share.
func (b *SaleEventBuilder) WithAcquisitionCost(cost float64) *SaleEventBuilder {
	b.event.AcquisitionCost = cost
	return b
}

// WithFairMarketValue sets the purchase date fair market value.
func (b *SaleEventBuilder) WithFairMarketValue(fmv float64) *SaleEventBuilder {
	b.event.PurchaseDateFairMktValue = fmv
	return b
}

// Build returns the sale event.
func (b *SaleEventBuilder) Build() model.SaleEvent {
	return b.event
}

// CreateExchangeRates stores EUR to USD rates keyed by date.
func CreateExchangeRates(t *testing.T, db *sql.DB, rates model.RateTable) {
	t.Helper()

	rows := make([]model.ExchangeRate, 0, len(rates))
	for date, rate := range rates {
		rows = append(rows, model.ExchangeRate{
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Rate:         rate,
			Date:         mustDate(t, date),
		})
	}
	if err := repository.NewExchangeRateRepository(db).UpsertRates(context.Background(), rows); err != nil {
		t.Fatalf("Failed to create exchange rates: %v", err)
	}
}

// CreateSymbolPrices stores daily prices of symbol keyed by date.
func CreateSymbolPrices(t *testing.T, db *sql.DB, symbol string, prices model.SymbolPriceTable) {
	t.Helper()

	rows := make([]model.SymbolPrice, 0, len(prices))
	for date, p := range prices {
		rows = append(rows, model.SymbolPrice{
			Symbol:  symbol,
			Date:    mustDate(t, date),
			Opening: p.Opening,
			Closing: p.Closing,
		})
	}
	if err := repository.NewSymbolPriceRepository(db).UpsertPrices(context.Background(), rows); err != nil {
		t.Fatalf("Failed to create symbol prices: %v", err)
	}
}

// CreateStoredReport stores a report row with an arbitrary payload.
func CreateStoredReport(t *testing.T, db *sql.DB, label, payload string) repository.StoredReport {
	t.Helper()

	report := repository.StoredReport{
		TaxReportSummary: model.TaxReportSummary{
			ID:         uuid.New().String(),
			TaxYear:    2022,
			Label:      label,
			EventCount: 1,
			CreatedAt:  time.Now().UTC().Truncate(time.Second),
		},
		Payload: payload,
	}
	if err := repository.NewReportRepository(db).InsertReport(context.Background(), report); err != nil {
		t.Fatalf("Failed to create report: %v", err)
	}
	return report
}

func mustDate(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		t.Fatalf("Invalid test date %q: %v", date, err)
	}
	return d
}
