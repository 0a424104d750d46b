package taxes

import (
	"fmt"
	"math"
	"strings"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// RsuRebateThreshold is the amount of qualified RSU acquisition gains, in EUR,
// eligible for the 50% rebate.
const RsuRebateThreshold = 300_000

// esppTolerance is how close the broker's fair market value and adjusted cost
// must be to consider acquisition gain taxes already collected. The two
// columns are exported with different precisions.
const esppTolerance = 0.001

// Rule applies the French tax rules of one plan category to events and
// returns the updated result. Rules select their own events.
type Rule func(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes

// DefaultRules lists every plan category in declaration order.
var DefaultRules = []Rule{
	FrQualifiedSo,
	FrQualifiedRsu,
	Espp,
	UsQualifiedSo,
	UsQualifiedRsu,
}

// ComputeFrTaxes enriches events with market and applies DefaultRules.
func ComputeFrTaxes(events []model.SaleEvent, market model.MarketData, fractions []float64) model.FrTaxes {
	return Apply(Enrich(events, market, fractions))
}

// Apply folds DefaultRules over events, starting from an empty result.
func Apply(events []model.EnrichedSaleEvent) model.FrTaxes {
	return ApplyRules(events, DefaultRules)
}

// ApplyRules folds rules over events in order, starting from an empty result.
func ApplyRules(events []model.EnrichedSaleEvent, rules []Rule) model.FrTaxes {
	taxes := model.EmptyFrTaxes()
	for _, rule := range rules {
		taxes = rule(taxes, events)
	}
	return taxes
}

const (
	sellToCoverText = "Use sell price as acquisition value given this is a sell to cover."
	sellAtLossText  = "Acquisition value is the sell price given the plan is qualified and the sale is at loss."
)

var rsuSellToCoverText = strings.Join([]string{
	sellToCoverText,
	"WARNING: implemented tax rule might be wrong for this case.",
	"Maybe the acquisition price should be the vesting price instead of the sell price.",
	"If you encounter this message, please contact French taxes support.",
}, "\n")

// qualifiedValuation values a sale of a French-qualified plan.
// A same-day sale is a sell to cover valued at the sale price. A sale below
// the acquisition-day opening price caps the acquisition value at the sale
// price. Otherwise the opening price is used.
func qualifiedValuation(sameDayText, openingText string) valuator {
	return func(e pricedEvent) (valuation, bool) {
		if e.IsSameDay() {
			return valuation{e.Proceeds, e.rateSold, e.AcquisitionCost, sameDayText}, true
		}
		price, ok := e.SymbolPriceAcquired.Get()
		if !ok {
			return valuation{}, false
		}
		sellPriceEUR := floor6(e.Proceeds / e.rateSold)
		openingEUR := floor6(price / e.rateAcquired)
		if sellPriceEUR < openingEUR {
			return valuation{e.Proceeds, e.rateSold, e.AcquisitionCost, sellAtLossText}, true
		}
		return valuation{price, e.rateAcquired, e.AcquisitionCost, openingText}, true
	}
}

// unqualifiedValuation values a sale of a plan not qualified in France.
// There is no loss cap.
func unqualifiedValuation(sameDayText string) valuator {
	return func(e pricedEvent) (valuation, bool) {
		if e.IsSameDay() {
			return valuation{e.Proceeds, e.rateSold, e.AcquisitionCost, sameDayText}, true
		}
		price, ok := e.SymbolPriceAcquired.Get()
		if !ok {
			return valuation{}, false
		}
		return valuation{price, e.rateAcquired, e.AcquisitionCost,
			fmt.Sprintf("Use %s price at opening on day of exercise.", e.Symbol)}, true
	}
}

// FrQualifiedSo taxes French-qualified stock options. The whole acquisition
// gain goes to 1TT.
func FrQualifiedSo(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes {
	selected := Select(events, IsFrQualifiedSo)
	raw, excluded := buildTaxableEvents(selected, func(e pricedEvent) (valuation, bool) {
		return qualifiedValuation(sellToCoverText,
			fmt.Sprintf("Use %s price at opening on day of exercise.", e.Symbol))(e)
	})
	taxes = taxes.WithExcluded(excluded...)
	if len(raw) == 0 {
		return taxes
	}

	capitalGain := BuildCapitalGain(raw)
	acquisitionGain := floor6(sumAcquisitionGain(raw))

	taxes = taxes.
		WithAmount(model.Box1TT, acquisitionGain).
		WithExplanations(model.Explanation{
			Box:           model.Box1TT,
			Description:   fmt.Sprintf("Acquisition gains from Qualified SO sales. (%s€)", FormatNumber(acquisitionGain)),
			TaxableEvents: capitalGain.Events,
		})
	return capitalGain.apply(taxes, "Capital gains from FR qualified SO sales.")
}

// FrQualifiedRsu taxes French-qualified restricted stock. Acquisition gains
// up to RsuRebateThreshold are halved into 1TZ with the matching rebate in
// 1WZ; the excess goes to 1TT.
func FrQualifiedRsu(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes {
	selected := Select(events, IsFrQualifiedRsu)
	raw, excluded := buildTaxableEvents(selected, func(e pricedEvent) (valuation, bool) {
		return qualifiedValuation(rsuSellToCoverText,
			fmt.Sprintf("Use %s price at opening on vesting day.", e.Symbol))(e)
	})
	taxes = taxes.WithExcluded(excluded...)
	if len(raw) == 0 {
		return taxes
	}

	capitalGain := BuildCapitalGain(raw)
	sum := sumAcquisitionGain(raw)
	acquisitionGain := floor6(sum)

	var explanations []model.Explanation
	if sum > 0 {
		discountable := math.Min(acquisitionGain, RsuRebateThreshold)
		half := floor6(discountable / 2)
		taxes = taxes.WithAmount(model.Box1TZ, half).WithAmount(model.Box1WZ, half)
		explanations = append(explanations,
			model.Explanation{
				Box:           model.Box1TZ,
				Description:   fmt.Sprintf("RSU acquisition gains below 300k€ with 50%% discount. (%s * 50%%)", FormatNumber(discountable)),
				TaxableEvents: capitalGain.Events,
			},
			model.Explanation{
				Box:           model.Box1WZ,
				Description:   fmt.Sprintf("Tax acquisition discount for RSU acquisition gains below 300k€ (%s * 50%%, see 1TZ for calculation details)", FormatNumber(discountable)),
				TaxableEvents: []model.TaxableEvent{},
			},
		)
	}
	if acquisitionGain > RsuRebateThreshold {
		taxes = taxes.WithAmount(model.Box1TT, acquisitionGain-RsuRebateThreshold)
		explanations = append(explanations, model.Explanation{
			Box:           model.Box1TT,
			Description:   fmt.Sprintf("RSU acquisition gains above 300k€ (%s - 300 000€, see 1TZ for calculation details)", FormatNumber(acquisitionGain)),
			TaxableEvents: []model.TaxableEvent{},
		})
	}

	taxes = taxes.WithExplanations(explanations...)
	return capitalGain.apply(taxes, "Capital gains from FR qualified RSU sales.")
}

// Espp taxes ESPP shares. Their acquisition gain is salary income of the
// purchase year, so only the capital gain is declared here. The 1AJ reminder
// is emitted even when no ESPP sale is taxable.
func Espp(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes {
	selected := Select(events, IsEspp)
	raw, excluded := buildTaxableEvents(selected, func(e pricedEvent) (valuation, bool) {
		if esppTaxesCollected(e.SaleEvent) {
			return valuation{e.AdjustedCost, e.rateAcquired, e.AdjustedCost,
				"Use ESPP value as defined by e-trade for acquisition value."}, true
		}
		return valuation{e.PurchaseDateFairMktValue, e.rateAcquired, e.AdjustedCost,
			"⚠️  Check you paid taxes for acquisition gains. Fair market value is used given e-trade did not collect taxes but your employer should have."}, true
	})
	taxes = taxes.WithExcluded(excluded...).WithExplanations(model.Explanation{
		Box:           model.Box1AJ,
		Description:   "Acquisition gains from ESPP sales are due the year of acquisition. Already reported by your employer and not yet available in this tool.",
		TaxableEvents: []model.TaxableEvent{},
	})
	if len(raw) == 0 {
		return taxes
	}
	return AddCapitalGain(taxes, "Capital gains from ESPP sales", raw)
}

// esppTaxesCollected reports whether the broker's adjusted cost already
// includes the acquisition gain, which is the case when it matches the fair
// market value. An unknown fair market value is treated as collected.
func esppTaxesCollected(e model.SaleEvent) bool {
	if e.PurchaseDateFairMktValue <= 0 {
		return true
	}
	return math.Abs(e.PurchaseDateFairMktValue-e.AdjustedCost) < esppTolerance
}

// UsQualifiedSo taxes stock options not qualified in France. Their acquisition
// gain is salary income reported by the employer at exercise.
func UsQualifiedSo(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes {
	selected := Select(events, IsUsQualifiedSo)
	raw, excluded := buildTaxableEvents(selected,
		unqualifiedValuation("Acquisition value is the sell price given this is a sell to cover."))
	taxes = taxes.WithExcluded(excluded...)
	if len(raw) == 0 {
		return taxes
	}

	capitalGain := BuildCapitalGain(raw)
	taxes = taxes.WithExplanations(model.Explanation{
		Box:           model.Box1AJ,
		Description:   "Acquisition gains from non qualified SO are due at vest time. This is already reported by your employer and not yet calculated by this tool.",
		TaxableEvents: capitalGain.Events,
	})
	return capitalGain.apply(taxes, "Capital gains from non FR qualified SO sales.")
}

// UsQualifiedRsu taxes restricted stock not qualified in France.
func UsQualifiedRsu(taxes model.FrTaxes, events []model.EnrichedSaleEvent) model.FrTaxes {
	selected := Select(events, IsUsQualifiedRsu)
	raw, excluded := buildTaxableEvents(selected, unqualifiedValuation(rsuSellToCoverText))
	taxes = taxes.WithExcluded(excluded...)
	if len(raw) == 0 {
		return taxes
	}

	capitalGain := BuildCapitalGain(raw)
	taxes = taxes.WithExplanations(model.Explanation{
		Box:           model.Box1AJ,
		Description:   "Acquisition gain from non-qualified RSUs are due at vest time. That should already have been reported by your employer and is not yet calculated by this tool.",
		TaxableEvents: capitalGain.Events,
	})
	return capitalGain.apply(taxes, "Capital gains from non FR qualified RSU sales.")
}
