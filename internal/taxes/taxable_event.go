package taxes

import (
	"fmt"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// valuation is the plan-specific choice of acquisition value for a sale.
// Every other taxable event field is computed the same way for all plans.
type valuation struct {
	valueUSD  float64
	valueRate float64
	costUSD   float64
	explain   string
}

// pricedEvent is an enriched event whose exchange rates are known.
type pricedEvent struct {
	model.EnrichedSaleEvent
	rateAcquired float64
	rateSold     float64
}

// valuator picks the acquisition value of an event. It returns false when the
// data it needs is missing.
type valuator func(pricedEvent) (valuation, bool)

// priceEvent unwraps the rates of e, or explains why it cannot be taxed.
func priceEvent(e model.EnrichedSaleEvent) (pricedEvent, string, bool) {
	rateAcquired, ok := e.RateAcquired.Get()
	if !ok {
		return pricedEvent{}, fmt.Sprintf("missing exchange rate for acquisition date %s", e.DateAcquired), false
	}
	rateSold, ok := e.RateSold.Get()
	if !ok {
		return pricedEvent{}, fmt.Sprintf("missing exchange rate for sale date %s", e.DateSold), false
	}
	return pricedEvent{EnrichedSaleEvent: e, rateAcquired: rateAcquired, rateSold: rateSold}, "", true
}

// buildTaxableEvents values each event with v. Events lacking rates or the
// data v needs are returned as excluded instead.
func buildTaxableEvents(events []model.EnrichedSaleEvent, v valuator) ([]model.TaxableEvent, []model.ExcludedEvent) {
	taxable := make([]model.TaxableEvent, 0, len(events))
	var excluded []model.ExcludedEvent

	for _, e := range events {
		priced, reason, ok := priceEvent(e)
		if !ok {
			excluded = append(excluded, excludedEvent(e, reason))
			continue
		}
		val, ok := v(priced)
		if !ok {
			excluded = append(excluded, excludedEvent(e, fmt.Sprintf("missing %s price for acquisition date %s", e.Symbol, e.DateAcquired)))
			continue
		}
		taxable = append(taxable, newTaxableEvent(priced, val))
	}
	return taxable, excluded
}

func excludedEvent(e model.EnrichedSaleEvent, reason string) model.ExcludedEvent {
	return model.ExcludedEvent{
		Symbol:   e.Symbol,
		PlanType: e.PlanType,
		DateSold: e.DateSold,
		Reason:   reason,
	}
}

// newTaxableEvent converts a sale into its French tax view.
// Per-share EUR amounts are floored to 6 digits as Form 2074 requires.
func newTaxableEvent(e pricedEvent, v valuation) model.TaxableEvent {
	sellPriceEUR := floor6(e.Proceeds / e.rateSold)
	acquisitionValueEUR := floor6(v.valueUSD / v.valueRate)
	acquisitionCostEUR := floor6(v.costUSD / e.rateAcquired)

	symbolPriceEUR := model.None[float64]()
	if price, ok := e.SymbolPriceAcquired.Get(); ok {
		symbolPriceEUR = model.Some(floor6(price / e.rateAcquired))
	}

	capitalGainPerShare := sellPriceEUR - acquisitionValueEUR
	acquisitionGainPerShare := (acquisitionValueEUR - acquisitionCostEUR) * e.FractionFrIncome

	return model.TaxableEvent{
		Symbol:      e.Symbol,
		PlanType:    e.PlanType,
		QualifiedIn: e.QualifiedIn,
		Type:        model.TaxableEventTypeSell,
		Date:        e.DateSold,
		Quantity:    e.Quantity,
		Sell: &model.SellLeg{
			USD:  e.Proceeds,
			Rate: e.rateSold,
			EUR:  sellPriceEUR,
			Date: e.DateSold,
		},
		Acquisition: model.AcquisitionLeg{
			ValueUSD:                v.valueUSD,
			ValueEUR:                acquisitionValueEUR,
			CostUSD:                 v.costUSD,
			CostEUR:                 acquisitionCostEUR,
			SymbolPrice:             e.SymbolPriceAcquired,
			SymbolPriceEUR:          symbolPriceEUR,
			Rate:                    e.rateAcquired,
			Date:                    e.DateAcquired,
			Description:             v.explain,
			DateSymbolPriceAcquired: e.DateSymbolPriceAcquired,
		},
		CapitalGain: model.Gain{
			PerShare: capitalGainPerShare,
			Total:    capitalGainPerShare * e.Quantity,
		},
		AcquisitionGain: model.AcquisitionGain{
			PerShare:   acquisitionGainPerShare,
			Total:      (acquisitionValueEUR - acquisitionCostEUR) * e.FractionFrIncome * e.Quantity,
			FractionFr: e.FractionFrIncome,
		},
	}
}

func sumAcquisitionGain(events []model.TaxableEvent) float64 {
	var total float64
	for _, e := range events {
		total += e.AcquisitionGain.Total
	}
	return total
}
