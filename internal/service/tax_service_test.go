package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/testutil"
)

// stubMarket serves fixed tables and counts calls.
type stubMarket struct {
	market model.MarketData
	err    error
	calls  int
}

func (s *stubMarket) MarketDataFor(_ context.Context, _ []model.SaleEvent) (model.MarketData, error) {
	s.calls++
	return s.market, s.err
}

func (s *stubMarket) GetRates(_ context.Context, _, _ string) (model.RateTable, error) {
	s.calls++
	return s.market.Rates, s.err
}

func ddogMarket() model.MarketData {
	return model.MarketData{
		Rates: model.RateTable{"2022-03-03": 1.12, "2022-09-09": 1.0},
		SymbolPrices: map[string]model.SymbolPriceTable{
			"DDOG": {"2022-03-03": {Opening: 100, Closing: 101}},
		},
	}
}

func TestTaxService_ComputeFrTaxes(t *testing.T) {
	ctx := context.Background()
	events := []model.SaleEvent{testutil.NewSaleEvent().Build()}

	t.Run("uses caller supplied tables", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		market := &stubMarket{}
		svc := testutil.NewTestTaxService(t, db, market)

		m := ddogMarket()
		result, err := svc.ComputeFrTaxes(ctx, request.TaxRequest{
			Events:       events,
			Rates:        m.Rates,
			SymbolPrices: m.SymbolPrices,
		})
		require.NoError(t, err)

		assert.Zero(t, market.calls)
		assert.Zero(t, result.ExcludedCount())
		assert.Len(t, result.Form2074.Page510, 1)
		assert.Empty(t, result.ReportID)
		testutil.AssertRowCount(t, db, testutil.ReportTable, 0)
	})

	t.Run("assembles missing tables", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		market := &stubMarket{market: ddogMarket()}
		svc := testutil.NewTestTaxService(t, db, market)

		result, err := svc.ComputeFrTaxes(ctx, request.TaxRequest{Events: events})
		require.NoError(t, err)

		assert.Equal(t, 1, market.calls)
		assert.Zero(t, result.ExcludedCount())
	})

	t.Run("reports missing market data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTaxService(t, db, &stubMarket{err: errors.New("ecb down")})

		_, err := svc.ComputeFrTaxes(ctx, request.TaxRequest{Events: events})
		assert.ErrorIs(t, err, apperrors.ErrMarketDataUnavailable)
	})

	t.Run("saves and reloads an encrypted report", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTaxService(t, db, &stubMarket{market: ddogMarket()})

		result, err := svc.ComputeFrTaxes(ctx, request.TaxRequest{Events: events, Save: true, Label: "2022 return"})
		require.NoError(t, err)
		require.NotEmpty(t, result.ReportID)
		testutil.AssertRowCount(t, db, testutil.ReportTable, 1)

		var payload string
		require.NoError(t, db.QueryRow("SELECT payload FROM tax_report").Scan(&payload))
		assert.NotContains(t, payload, "Form 2074")

		reports, err := svc.GetReports(ctx)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, 2022, reports[0].TaxYear)
		assert.Equal(t, "2022 return", reports[0].Label)
		assert.Equal(t, 1, reports[0].EventCount)

		report, err := svc.GetReport(ctx, result.ReportID)
		require.NoError(t, err)
		assert.Equal(t, result.FrTaxes, report.Result)

		require.NoError(t, svc.DeleteReport(ctx, result.ReportID))
		_, err = svc.GetReport(ctx, result.ReportID)
		assert.ErrorIs(t, err, apperrors.ErrReportNotFound)
	})

	t.Run("refuses to save without an encryption key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := service.NewTaxService(repository.NewReportRepository(db), &stubMarket{market: ddogMarket()}, nil)

		_, err := svc.ComputeFrTaxes(ctx, request.TaxRequest{Events: events, Save: true})
		assert.ErrorIs(t, err, apperrors.ErrEncryptionNotConfigured)
		testutil.AssertRowCount(t, db, testutil.ReportTable, 0)
	})
}

func TestTaxService_GetReport(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects payloads sealed with another key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		other := testutil.NewTestSealer(t)
		sealed, err := other.Seal([]byte(`{}`))
		require.NoError(t, err)
		stored := testutil.CreateStoredReport(t, db, "foreign", sealed)

		svc := testutil.NewTestTaxService(t, db, &stubMarket{})
		_, err = svc.GetReport(ctx, stored.ID)
		assert.ErrorIs(t, err, apperrors.ErrFailedToDecryptReport)
	})

	t.Run("returns not found for unknown ids", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTaxService(t, db, &stubMarket{})

		_, err := svc.GetReport(ctx, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrReportNotFound)

		err = svc.DeleteReport(ctx, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrReportNotFound)
	})
}

func TestTaxService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	events := []model.SaleEvent{testutil.NewSaleEvent().Build()}

	t.Run("writes enriched rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTaxService(t, db, &stubMarket{market: ddogMarket()})

		var buf bytes.Buffer
		require.NoError(t, svc.ExportCSV(ctx, request.TaxRequest{Events: events, Fractions: []float64{0.5}}, &buf))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Quantity", records[0][0])
		assert.Equal(t, []string{"10", "0.5", "2022-03-03", "1.12"}, records[1][:4])
	})

	t.Run("fails on missing rates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		market := ddogMarket()
		delete(market.Rates, "2022-09-09")
		svc := testutil.NewTestTaxService(t, db, &stubMarket{market: market})

		var buf bytes.Buffer
		err := svc.ExportCSV(ctx, request.TaxRequest{Events: events}, &buf)
		assert.ErrorIs(t, err, apperrors.ErrIncompleteRates)
	})
}

func TestTaxService_CalcTotals(t *testing.T) {
	ctx := context.Background()

	t.Run("fills missing rates from the market data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		market := &stubMarket{market: model.MarketData{Rates: model.RateTable{"2022-03-03": 1.25, "2022-09-09": 1.5}}}
		svc := testutil.NewTestTaxService(t, db, market)

		result := svc.CalcTotals(ctx, request.TotalsRequest{Events: []model.TotalsEvent{{
			Quantity:     10,
			Proceeds:     120,
			AdjustedCost: 100,
			DateAcquired: "2022-03-03",
			DateSold:     "2022-09-09",
			FractionFr:   1,
		}}})

		require.NotNil(t, result.Totals)
		assert.Equal(t, 1, market.calls)
		assert.InDelta(t, 800, result.Totals.Income, 1e-9)
		assert.InDelta(t, 800, result.Totals.Proceeds, 1e-9)
		assert.InDelta(t, 400, result.RsuIncomeBoxes.Rebate1WZ, 1e-9)
	})

	t.Run("keeps caller rates without a lookup", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		market := &stubMarket{}
		svc := testutil.NewTestTaxService(t, db, market)

		result := svc.CalcTotals(ctx, request.TotalsRequest{Events: []model.TotalsEvent{{
			Quantity:     1,
			Proceeds:     110,
			AdjustedCost: 100,
			DateAcquired: "2022-03-03",
			DateSold:     "2022-09-09",
			RateAcquired: model.Some(1.0),
			RateSold:     model.Some(1.0),
		}}})

		require.NotNil(t, result.Totals)
		assert.Zero(t, market.calls)
		assert.InDelta(t, 10, result.Totals.Gain, 1e-9)
	})

	t.Run("leaves totals empty when rates are unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTaxService(t, db, &stubMarket{err: apperrors.ErrExchangeRateNotFound})

		result := svc.CalcTotals(ctx, request.TotalsRequest{Events: []model.TotalsEvent{{
			Quantity:     1,
			DateAcquired: "2022-03-03",
			DateSold:     "2022-09-09",
		}}})
		assert.Nil(t, result.Totals)
	})
}
