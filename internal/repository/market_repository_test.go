package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/testutil"
)

func TestExchangeRateRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewExchangeRateRepository(db)

	latest, err := repo.GetLatestRateDate(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.Empty(t, latest)

	testutil.CreateExchangeRates(t, db, model.RateTable{"2022-03-02": 1.1, "2022-03-03": 1.2, "2022-03-04": 1.3})
	// an upsert replaces the stored rate
	testutil.CreateExchangeRates(t, db, model.RateTable{"2022-03-03": 1.25})
	testutil.AssertRowCount(t, db, testutil.ExchangeRateTable, 3)

	rates, err := repo.GetRates(ctx, "EUR", "USD", "2022-03-03", "2022-03-04")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "2022-03-03", rates[0].Date.Format(model.DateLayout))
	assert.InDelta(t, 1.25, rates[0].Rate, 1e-9)
	assert.NotEmpty(t, rates[0].ID)

	rates, err = repo.GetRates(ctx, "USD", "EUR", "2022-03-01", "2022-03-31")
	require.NoError(t, err)
	assert.Empty(t, rates)

	latest, err = repo.GetLatestRateDate(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, "2022-03-04", latest)
}

func TestSymbolPriceRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewSymbolPriceRepository(db)

	testutil.CreateSymbolPrices(t, db, "DDOG", model.SymbolPriceTable{
		"2022-03-03": {Opening: 146.5, Closing: 147.5},
		"2022-03-04": {Opening: 140.1, Closing: 141.1},
	})
	testutil.CreateSymbolPrices(t, db, "MSFT", model.SymbolPriceTable{
		"2022-03-03": {Opening: 300, Closing: 301},
	})
	testutil.CreateSymbolPrices(t, db, "DDOG", model.SymbolPriceTable{
		"2022-03-04": {Opening: 140, Closing: 142},
	})

	prices, err := repo.GetPrices(ctx, "DDOG", "2022-03-01", "2022-03-31")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2022-03-04", prices[1].Date.Format(model.DateLayout))
	assert.InDelta(t, 140.0, prices[1].Opening, 1e-9)
	assert.InDelta(t, 142.0, prices[1].Closing, 1e-9)
	testutil.AssertRowCount(t, db, testutil.SymbolPriceTable, 3)
}
