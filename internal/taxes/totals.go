package taxes

import (
	"math"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// CalcTotals sums calculator events in EUR.
//
// Events without both exchange rates are skipped. When the overall result is
// a net capital loss, the French-origin income is reduced by that loss in
// proportion to its share of the total income. Returns nil when no event
// could be counted.
func CalcTotals(events []model.TotalsEvent) *model.Totals {
	var totals *model.Totals

	for _, e := range events {
		rateAcquired, okAcquired := e.RateAcquired.Get()
		rateSold, okSold := e.RateSold.Get()
		if !okAcquired || !okSold || rateAcquired <= 0 || rateSold <= 0 {
			continue
		}
		if totals == nil {
			totals = &model.Totals{}
		}

		totals.Income += e.AdjustedCost * e.Quantity / rateAcquired
		totals.IncomeFr += e.AdjustedCost * e.Quantity * e.FractionFr / rateAcquired
		totals.Proceeds += e.Proceeds * e.Quantity / rateSold

		gainLoss := AdjustedGainLoss(e.Quantity, e.AdjustedCost, e.Proceeds, rateAcquired, rateSold)
		if gainLoss > 0 {
			totals.Gain += gainLoss
		} else if gainLoss < 0 {
			totals.Loss += gainLoss
		}
	}

	if totals == nil {
		return nil
	}
	if net := totals.Gain + totals.Loss; net < 0 && totals.Income > 0 {
		totals.IncomeFr += net * totals.IncomeFr / totals.Income
	}
	return totals
}

// AdjustedGainLoss returns the EUR gain or loss of selling quantity shares.
func AdjustedGainLoss(quantity, adjustedCost, proceeds, rateAcquired, rateSold float64) float64 {
	return proceeds*quantity/rateSold - adjustedCost*quantity/rateAcquired
}

// AboveAbatementThreshold returns the part of income above RsuRebateThreshold.
func AboveAbatementThreshold(income float64) float64 {
	return math.Max(income, RsuRebateThreshold) - RsuRebateThreshold
}

// Abatement returns the 50% rebate on income up to RsuRebateThreshold.
func Abatement(income float64) float64 {
	return (income - AboveAbatementThreshold(income)) / 2
}

// RsuIncomeBoxesFor previews the 1TT, 1TZ and 1WZ amounts for a French-origin
// RSU income.
func RsuIncomeBoxesFor(incomeFr float64) model.RsuIncomeBoxes {
	abatement := Abatement(incomeFr)
	return model.RsuIncomeBoxes{
		Above1TT:  AboveAbatementThreshold(incomeFr),
		Taxed1TZ:  incomeFr - abatement,
		Rebate1WZ: abatement,
	}
}

// TotalsEventFrom returns the calculator view of an enriched sale.
func TotalsEventFrom(e model.EnrichedSaleEvent) model.TotalsEvent {
	return model.TotalsEvent{
		Quantity:     e.Quantity,
		Proceeds:     e.Proceeds,
		AdjustedCost: e.AdjustedCost,
		DateAcquired: e.DateAcquired,
		DateSold:     e.DateSold,
		RateAcquired: e.RateAcquired,
		RateSold:     e.RateSold,
		FractionFr:   e.FractionFrIncome,
	}
}
