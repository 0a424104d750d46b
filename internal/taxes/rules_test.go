package taxes_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/taxes"
)

const delta = 1e-6

// ddogSale returns 10 DDOG shares acquired on 2022-03-03 at an opening price
// of $100 and a rate of 1.12.
func ddogSale(plan model.PlanType, qualified model.Qualification, proceeds, acquisitionCost float64, dateSold string, rateSold float64) model.EnrichedSaleEvent {
	return model.EnrichedSaleEvent{
		SaleEvent: model.SaleEvent{
			Symbol:          "DDOG",
			PlanType:        plan,
			Quantity:        10,
			Proceeds:        proceeds,
			AdjustedCost:    80,
			AcquisitionCost: acquisitionCost,
			DateAcquired:    "2022-03-03",
			DateSold:        dateSold,
			QualifiedIn:     qualified,
		},
		RateAcquired:        model.Some(1.12),
		RateSold:            model.Some(rateSold),
		SymbolPriceAcquired: model.Some(100.0),
		FractionFrIncome:    1,
	}
}

func assertPage(t *testing.T, page model.DeclarationPage, designation string, salePrice, totalSale, netGain float64) {
	t.Helper()
	assert.Equal(t, designation, page.Designation)
	assert.Equal(t, "09/03/2022", page.SaleDate)
	assert.InDelta(t, salePrice, page.SalePricePerShare, delta)
	assert.Equal(t, 10.0, page.Quantity)
	assert.InDelta(t, totalSale, page.TotalSalePrice, delta)
	assert.Equal(t, 0.0, page.SaleFees)
	assert.InDelta(t, totalSale, page.NetSalePrice, delta)
	assert.InDelta(t, 89.29, page.AcquisitionValue, delta)
	assert.InDelta(t, 893.0, page.TotalAcquisition, delta)
	assert.Equal(t, 0.0, page.AcquisitionFees)
	assert.InDelta(t, 893.0, page.NetAcquisition, delta)
	assert.InDelta(t, netGain, page.NetGain, delta)
	assert.False(t, page.InvalidationLoss)
	assert.Equal(t, 0.0, page.InvalidationLossNet)
}

func TestFrQualifiedSo(t *testing.T) {
	t.Run("same day sell has no capital gain", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedFR, 110, 20, "2022-03-03", 1.12),
		}

		result := taxes.FrQualifiedSo(model.EmptyFrTaxes(), events)

		// sell price = 110 / 1.12 = 98.214285, cost = 20 / 1.12 = 17.857142
		assert.InDelta(t, 803.57143, result.Amount1TT, 1e-5)
		assert.Equal(t, 0.0, result.Amount3VG)
		assert.Empty(t, result.Form2074.Page510)

		require.Len(t, result.Explanations, 1)
		assert.Equal(t, model.Box1TT, result.Explanations[0].Box)
		assert.Equal(t,
			"Use sell price as acquisition value given this is a sell to cover.",
			result.Explanations[0].TaxableEvents[0].Acquisition.Description)
	})

	t.Run("sale at loss caps acquisition value at sale price", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedFR, 90, 20, "2022-03-09", 1.13),
		}

		result := taxes.FrQualifiedSo(model.EmptyFrTaxes(), events)

		// value = 90 / 1.13 = 79.646017, cost = 17.857142
		assert.InDelta(t, 617.88875, result.Amount1TT, 1e-5)
		assert.Equal(t, 0.0, result.Amount3VG)
		assert.Empty(t, result.Form2074.Page510)
		assert.Equal(t,
			"Acquisition value is the sell price given the plan is qualified and the sale is at loss.",
			result.Explanations[0].TaxableEvents[0].Acquisition.Description)
	})

	t.Run("sale with gains", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedFR, 110, 20, "2022-03-09", 1.13),
		}

		result := taxes.FrQualifiedSo(model.EmptyFrTaxes(), events)

		// value = 100 / 1.12 = 89.285714, cost = 17.857142
		assert.InDelta(t, 714.28572, result.Amount1TT, 1e-5)
		assert.InDelta(t, 80.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (Stock Options)", 97.345132, 973, 80)

		require.Len(t, result.Explanations, 2)
		assert.Equal(t, model.Box1TT, result.Explanations[0].Box)
		assert.Equal(t, "Acquisition gains from Qualified SO sales. (714.29€)", result.Explanations[0].Description)
		assert.Equal(t, model.Box3VG, result.Explanations[1].Box)
		assert.Equal(t, "Capital gains from FR qualified SO sales. (80.00€ as computed by form 2074)", result.Explanations[1].Description)
		assert.Equal(t, "Use DDOG price at opening on day of exercise.",
			result.Explanations[1].TaxableEvents[0].Acquisition.Description)
	})

	t.Run("ignores other plans", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-09", 1.13),
		}

		result := taxes.FrQualifiedSo(model.EmptyFrTaxes(), events)

		assert.Equal(t, model.EmptyFrTaxes(), result)
	})
}

func TestFrQualifiedRsu(t *testing.T) {
	t.Run("same day sell", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-03", 1.12),
		}

		result := taxes.FrQualifiedRsu(model.EmptyFrTaxes(), events)

		// 110 / 1.12 = 98.214285 per share, halved
		assert.InDelta(t, 491.071425, result.Amount1TZ, delta)
		assert.InDelta(t, 491.071425, result.Amount1WZ, delta)
		assert.Equal(t, 0.0, result.Amount1TT)
		assert.Equal(t, 0.0, result.Amount3VG)
		assert.Empty(t, result.Form2074.Page510)
		assert.True(t, strings.HasPrefix(
			result.Explanations[0].TaxableEvents[0].Acquisition.Description,
			"Use sell price as acquisition value given this is a sell to cover.\nWARNING"))
	})

	t.Run("sale at loss", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeRS, model.QualifiedFR, 90, 0, "2022-03-09", 1.13),
		}

		result := taxes.FrQualifiedRsu(model.EmptyFrTaxes(), events)

		assert.InDelta(t, 398.230085, result.Amount1TZ, delta)
		assert.InDelta(t, 398.230085, result.Amount1WZ, delta)
		assert.Equal(t, 0.0, result.Amount1TT)
		assert.Empty(t, result.Form2074.Page510)
	})

	t.Run("sale with gains", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-09", 1.13),
		}

		result := taxes.FrQualifiedRsu(model.EmptyFrTaxes(), events)

		assert.InDelta(t, 446.42857, result.Amount1TZ, delta)
		assert.InDelta(t, 446.42857, result.Amount1WZ, delta)
		assert.Equal(t, 0.0, result.Amount1TT)
		assert.InDelta(t, 80.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (RSU)", 97.345132, 973, 80)

		boxes := make([]model.Box, 0, len(result.Explanations))
		for _, e := range result.Explanations {
			boxes = append(boxes, e.Box)
		}
		assert.Equal(t, []model.Box{model.Box1TZ, model.Box1WZ, model.Box3VG}, boxes)
	})

	t.Run("splits gains above the rebate threshold", func(t *testing.T) {
		event := model.EnrichedSaleEvent{
			SaleEvent: model.SaleEvent{
				Symbol:       "DDOG",
				PlanType:     model.PlanTypeRS,
				Quantity:     10,
				Proceeds:     35000,
				DateAcquired: "2022-03-03",
				DateSold:     "2022-03-09",
				QualifiedIn:  model.QualifiedFR,
			},
			RateAcquired:        model.Some(1.0),
			RateSold:            model.Some(1.0),
			SymbolPriceAcquired: model.Some(35000.0),
			FractionFrIncome:    1,
		}

		result := taxes.FrQualifiedRsu(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{event})

		assert.InDelta(t, 150000.0, result.Amount1TZ, delta)
		assert.InDelta(t, 150000.0, result.Amount1WZ, delta)
		assert.InDelta(t, 50000.0, result.Amount1TT, delta)
		assert.Equal(t, result.Amount1TZ, result.Amount1WZ)
	})

	t.Run("applies the French-origin fraction", func(t *testing.T) {
		event := ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-09", 1.13)
		event.FractionFrIncome = 0.5

		result := taxes.FrQualifiedRsu(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{event})

		// 892.85714 * 0.5 / 2
		assert.InDelta(t, 223.214285, result.Amount1TZ, delta)
	})
}

func TestEspp(t *testing.T) {
	esppSale := func(proceeds float64) model.EnrichedSaleEvent {
		e := ddogSale(model.PlanTypeESPP, model.QualifiedFR, proceeds, 80, "2022-03-09", 1.13)
		e.AdjustedCost = 100
		e.PurchaseDateFairMktValue = 100
		return e
	}

	t.Run("capital loss", func(t *testing.T) {
		result := taxes.Espp(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{esppSale(90)})

		assert.InDelta(t, -97.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (ESPP)", 79.646017, 796, -97)
		assert.Equal(t, 0.0, result.Amount1AJ)
		assert.Equal(t, 0.0, result.Amount1TT)
		assert.Equal(t, 0.0, result.Amount1TZ)
		assert.Equal(t, 0.0, result.Amount1WZ)
	})

	t.Run("capital gain", func(t *testing.T) {
		result := taxes.Espp(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{esppSale(110)})

		assert.InDelta(t, 80.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (ESPP)", 97.345132, 973, 80)

		require.Len(t, result.Explanations, 2)
		assert.Equal(t, model.Box1AJ, result.Explanations[0].Box)
		assert.Empty(t, result.Explanations[0].TaxableEvents)
		assert.Equal(t, "Use ESPP value as defined by e-trade for acquisition value.",
			result.Explanations[1].TaxableEvents[0].Acquisition.Description)
	})

	t.Run("always explains 1AJ", func(t *testing.T) {
		result := taxes.Espp(model.EmptyFrTaxes(), nil)

		require.Len(t, result.Explanations, 1)
		assert.Equal(t, model.Box1AJ, result.Explanations[0].Box)
		assert.Empty(t, result.Explanations[0].TaxableEvents)
		assert.Empty(t, result.Form2074.Page510)
		assert.Equal(t, 0.0, result.Amount3VG)

		missingRate := esppSale(110)
		missingRate.RateSold = model.None[float64]()
		result = taxes.Espp(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{missingRate})

		require.Len(t, result.Explanations, 1)
		assert.Equal(t, model.Box1AJ, result.Explanations[0].Box)
		assert.Equal(t, 1, result.ExcludedCount())
	})

	t.Run("uses fair market value when taxes were not collected", func(t *testing.T) {
		e := esppSale(110)
		e.PurchaseDateFairMktValue = 105

		result := taxes.Espp(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{e})

		require.Len(t, result.Explanations, 2)
		taxable := result.Explanations[1].TaxableEvents[0]
		assert.Equal(t, 105.0, taxable.Acquisition.ValueUSD)
		assert.Equal(t, 100.0, taxable.Acquisition.CostUSD)
		assert.True(t, strings.HasPrefix(taxable.Acquisition.Description, "⚠️"))
	})
}

func TestUsQualifiedPlans(t *testing.T) {
	t.Run("same day SO sell has no capital gain", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedUS, 110, 0, "2022-03-03", 1.12),
		}

		result := taxes.UsQualifiedSo(model.EmptyFrTaxes(), events)

		assert.Equal(t, 0.0, result.Amount3VG)
		assert.Empty(t, result.Form2074.Page510)
		require.Len(t, result.Explanations, 1)
		assert.Equal(t, model.Box1AJ, result.Explanations[0].Box)
		assert.Equal(t, 0.0, result.Amount1AJ)
	})

	t.Run("SO capital loss is not capped", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedUS, 90, 0, "2022-03-09", 1.13),
		}

		result := taxes.UsQualifiedSo(model.EmptyFrTaxes(), events)

		assert.InDelta(t, -97.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (Stock Options)", 79.646017, 796, -97)
	})

	t.Run("RSU capital gain", func(t *testing.T) {
		events := []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeRS, model.QualifiedUS, 110, 0, "2022-03-09", 1.13),
		}

		result := taxes.UsQualifiedRsu(model.EmptyFrTaxes(), events)

		assert.InDelta(t, 80.0, result.Amount3VG, delta)
		require.Len(t, result.Form2074.Page510, 1)
		assertPage(t, result.Form2074.Page510[0], "DDOG (RSU)", 97.345132, 973, 80)
		assert.Equal(t, 0.0, result.Amount1TZ)
	})

	t.Run("no events leaves the result unchanged", func(t *testing.T) {
		start := model.EmptyFrTaxes().WithAmount(model.Box1TT, 12)

		assert.Equal(t, start, taxes.UsQualifiedSo(start, nil))
		assert.Equal(t, start, taxes.UsQualifiedRsu(start, nil))
	})
}

func TestApply(t *testing.T) {
	mixed := func() []model.EnrichedSaleEvent {
		return []model.EnrichedSaleEvent{
			ddogSale(model.PlanTypeSO, model.QualifiedFR, 110, 20, "2022-03-09", 1.13),
			ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-09", 1.13),
			ddogSale(model.PlanTypeSO, model.QualifiedUS, 90, 0, "2022-03-09", 1.13),
			ddogSale(model.PlanTypeRS, model.QualifiedUS, 110, 0, "2022-03-09", 1.13),
		}
	}

	t.Run("3VG equals the sum of declared net gains", func(t *testing.T) {
		result := taxes.Apply(mixed())

		require.Len(t, result.Form2074.Page510, 4)
		var sum float64
		for _, p := range result.Form2074.Page510 {
			sum += p.NetGain
		}
		assert.InDelta(t, sum, result.Amount3VG, delta)
		assert.InDelta(t, 143.0, result.Amount3VG, delta)
		assert.InDelta(t, 240.0, result.Form2074.Page900.Field903.Gains, delta)
		assert.InDelta(t, -97.0, result.Form2074.Page900.Field903.Losses, delta)
	})

	t.Run("is idempotent", func(t *testing.T) {
		assert.Equal(t, taxes.Apply(mixed()), taxes.Apply(mixed()))
	})

	t.Run("excludes events with missing rates without affecting others", func(t *testing.T) {
		events := mixed()
		broken := ddogSale(model.PlanTypeSO, model.QualifiedFR, 500, 20, "2022-03-10", 1.13)
		broken.RateSold = model.None[float64]()
		events = append(events, broken)

		result := taxes.Apply(events)

		assert.Equal(t, 1, result.ExcludedCount())
		assert.Equal(t, "missing exchange rate for sale date 2022-03-10", result.ExcludedEvents[0].Reason)
		assert.Equal(t, taxes.Apply(mixed()).Amount1TT, result.Amount1TT)
		assert.Equal(t, taxes.Apply(mixed()).Amount3VG, result.Amount3VG)
	})

	t.Run("excludes events lacking the opening price they need", func(t *testing.T) {
		event := ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-09", 1.13)
		event.SymbolPriceAcquired = model.None[float64]()
		sameDay := ddogSale(model.PlanTypeRS, model.QualifiedFR, 110, 0, "2022-03-03", 1.12)
		sameDay.SymbolPriceAcquired = model.None[float64]()

		result := taxes.Apply([]model.EnrichedSaleEvent{event, sameDay})

		require.Equal(t, 1, result.ExcludedCount())
		assert.Equal(t, "missing DDOG price for acquisition date 2022-03-03", result.ExcludedEvents[0].Reason)
		assert.InDelta(t, 491.071425, result.Amount1TZ, delta)
	})

	t.Run("ignores unsupported combinations", func(t *testing.T) {
		event := ddogSale(model.PlanTypeSO, "", 110, 20, "2022-03-09", 1.13)

		result := taxes.Apply([]model.EnrichedSaleEvent{event})

		assert.Equal(t, taxes.Espp(model.EmptyFrTaxes(), nil), result, "only the ESPP reminder is emitted")
		assert.Empty(t, result.Form2074.Page510)
		assert.Zero(t, result.ExcludedCount())
	})
}

func TestComputeFrTaxes(t *testing.T) {
	events := []model.SaleEvent{
		{Symbol: "DDOG", PlanType: model.PlanTypeRS, QualifiedIn: model.QualifiedUS, Quantity: 10,
			Proceeds: 110, DateAcquired: "2022-03-03", DateSold: "2022-09-09"},
		{Symbol: "DDOG", PlanType: model.PlanTypeSO, QualifiedIn: model.QualifiedUS, Quantity: 10,
			Proceeds: 110, DateAcquired: "2022-03-03", DateSold: "2022-03-09"},
	}

	result := taxes.ComputeFrTaxes(events, ddogMarket(), nil)

	require.Len(t, result.Form2074.Page510, 2)
	assert.Equal(t, "09/03/2022", result.Form2074.Page510[0].SaleDate)
	assert.Equal(t, "09/09/2022", result.Form2074.Page510[1].SaleDate)
	assert.Zero(t, result.ExcludedCount())
}

func TestRuleFunctionsDoNotAliasResults(t *testing.T) {
	base := taxes.FrQualifiedSo(model.EmptyFrTaxes(), []model.EnrichedSaleEvent{
		ddogSale(model.PlanTypeSO, model.QualifiedFR, 110, 20, "2022-03-09", 1.13),
	})
	snapshot := len(base.Explanations)

	first := taxes.Espp(base, []model.EnrichedSaleEvent{
		ddogSale(model.PlanTypeESPP, model.QualifiedFR, 110, 80, "2022-03-09", 1.13),
	})
	second := taxes.UsQualifiedSo(base, []model.EnrichedSaleEvent{
		ddogSale(model.PlanTypeSO, model.QualifiedUS, 90, 0, "2022-03-09", 1.13),
	})

	assert.Len(t, base.Explanations, snapshot)
	assert.Equal(t, model.Box1AJ, first.Explanations[snapshot].Box)
	assert.Equal(t, model.Box1AJ, second.Explanations[snapshot].Box)
	assert.NotEqual(t, first.Explanations[snapshot].Description, second.Explanations[snapshot].Description)
}
