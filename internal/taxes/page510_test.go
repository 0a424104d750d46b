package taxes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/taxes"
)

func sellEvent(sellEUR, acquisitionEUR float64, date string) model.TaxableEvent {
	perShare := sellEUR - acquisitionEUR
	return model.TaxableEvent{
		Symbol:   "DDOG",
		PlanType: model.PlanTypeSO,
		Type:     model.TaxableEventTypeSell,
		Date:     date,
		Quantity: 10,
		Sell:     &model.SellLeg{USD: sellEUR * 1.13, Rate: 1.13, EUR: sellEUR, Date: date},
		Acquisition: model.AcquisitionLeg{
			ValueEUR: acquisitionEUR,
			Date:     "2022-03-03",
		},
		CapitalGain: model.Gain{PerShare: perShare, Total: perShare * 10},
	}
}

func TestBuildCapitalGain(t *testing.T) {
	t.Run("reconciles events with the rounded page figures", func(t *testing.T) {
		raw := []model.TaxableEvent{sellEvent(97.345132, 89.285714, "2022-03-09")}

		gain := taxes.BuildCapitalGain(raw)

		require.True(t, gain.Declared)
		require.Len(t, gain.Pages, 1)
		assert.InDelta(t, 80.0, gain.Total, delta)
		assert.InDelta(t, 97.345132-89.29, gain.Events[0].CapitalGain.PerShare, delta)
		assert.InDelta(t, 80.0, gain.Events[0].CapitalGain.Total, delta)

		// the input is left untouched
		assert.InDelta(t, 97.345132-89.285714, raw[0].CapitalGain.PerShare, delta)
		assert.InDelta(t, (97.345132-89.285714)*10, raw[0].CapitalGain.Total, delta)
	})

	t.Run("skips events without capital gain", func(t *testing.T) {
		raw := []model.TaxableEvent{
			sellEvent(97.345132, 89.285714, "2022-03-09"),
			sellEvent(50, 50, "2022-03-10"),
			sellEvent(79.646017, 89.285714, "2022-03-11"),
		}

		gain := taxes.BuildCapitalGain(raw)

		require.Len(t, gain.Pages, 2)
		assert.Equal(t, "09/03/2022", gain.Pages[0].SaleDate)
		assert.Equal(t, "11/03/2022", gain.Pages[1].SaleDate)
		assert.InDelta(t, -17.0, gain.Total, delta)
		assert.Equal(t, raw[1], gain.Events[1])
	})

	t.Run("declares nothing when every gain is zero", func(t *testing.T) {
		raw := []model.TaxableEvent{sellEvent(50, 50, "2022-03-10")}

		gain := taxes.BuildCapitalGain(raw)

		assert.False(t, gain.Declared)
		assert.Empty(t, gain.Pages)
		assert.Zero(t, gain.Total)
		assert.Equal(t, raw, gain.Events)
	})

	t.Run("floors fractional quantities", func(t *testing.T) {
		event := sellEvent(97.345132, 89.285714, "2022-03-09")
		event.Quantity = 10.7

		gain := taxes.BuildCapitalGain([]model.TaxableEvent{event})

		require.Len(t, gain.Pages, 1)
		assert.Equal(t, 10.0, gain.Pages[0].Quantity)
	})
}

func TestAddCapitalGain(t *testing.T) {
	start := model.EmptyFrTaxes().WithAmount(model.Box3VG, 20)

	result := taxes.AddCapitalGain(start, "Capital gains.", []model.TaxableEvent{
		sellEvent(97.345132, 89.285714, "2022-03-09"),
	})

	assert.InDelta(t, 100.0, result.Amount3VG, delta)
	require.Len(t, result.Explanations, 1)
	assert.Equal(t, "Capital gains. (80.00€ as computed by form 2074)", result.Explanations[0].Description)
	assert.Len(t, result.Form2074.Page510, 1)
	assert.InDelta(t, 80.0, result.Form2074.Page900.Field903.Gains, delta)
	assert.Zero(t, start.Amount3VG-20, "input result is not modified")
	assert.Empty(t, start.Form2074.Page510)
}
