package taxes

import (
	"slices"
	"strings"
	"time"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// maxPriceLookback is the number of earlier days searched when the
// acquisition date has no trading price.
const maxPriceLookback = 10

// Enrich attaches exchange rates, the acquisition-day opening price and the
// French-origin fraction to each sale event.
//
// Events are returned sorted by sale date (stable). fractions is parallel to
// events in their input order; a missing entry defaults to 1.
//
// Rates are looked up for the exact dates only: the rate table is expected to
// already cover non-trading days. An absent rate is left as an absent
// Optional so that rule functions can exclude the event explicitly.
func Enrich(events []model.SaleEvent, market model.MarketData, fractions []float64) []model.EnrichedSaleEvent {
	type indexed struct {
		event    model.SaleEvent
		fraction float64
	}

	items := make([]indexed, len(events))
	for i, e := range events {
		fraction := 1.0
		if i < len(fractions) {
			fraction = fractions[i]
		}
		items[i] = indexed{event: e, fraction: fraction}
	}

	slices.SortStableFunc(items, func(a, b indexed) int {
		return compareDates(a.event.DateSold, b.event.DateSold)
	})

	enriched := make([]model.EnrichedSaleEvent, len(items))
	for i, it := range items {
		e := it.event
		out := model.EnrichedSaleEvent{
			SaleEvent:        e,
			RateAcquired:     lookupRate(market.Rates, e.DateAcquired),
			RateSold:         lookupRate(market.Rates, e.DateSold),
			FractionFrIncome: it.fraction,
		}

		prices := market.SymbolPrices[e.Symbol]
		if date, ok := AdjustedSymbolDate(e.DateAcquired, prices); ok {
			out.SymbolPriceAcquired = model.Some(prices[date].Opening)
			if date != e.DateAcquired {
				out.DateSymbolPriceAcquired = date
			}
		} else if e.PurchaseDateFairMktValue > 0 {
			// Not publicly traded yet: use the fair market value.
			out.SymbolPriceAcquired = model.Some(e.PurchaseDateFairMktValue)
		}

		enriched[i] = out
	}
	return enriched
}

// AdjustedSymbolDate returns the latest date at or before date that has a
// price in prices, searching at most maxPriceLookback days back.
func AdjustedSymbolDate(date string, prices model.SymbolPriceTable) (string, bool) {
	if len(prices) == 0 {
		return "", false
	}
	if _, ok := prices[date]; ok {
		return date, true
	}

	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "", false
	}
	for i := 0; i < maxPriceLookback; i++ {
		day = day.AddDate(0, 0, -1)
		candidate := day.Format(model.DateLayout)
		if _, ok := prices[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func lookupRate(rates model.RateTable, date string) model.Optional[float64] {
	rate, ok := rates[date]
	if !ok || rate <= 0 {
		return model.None[float64]()
	}
	return model.Some(rate)
}

// compareDates orders DateLayout strings chronologically; YYYY-MM-DD sorts
// lexically.
func compareDates(a, b string) int {
	return strings.Compare(a, b)
}
