package model

import "time"

// DailyPrice holds the opening and closing price of a symbol for one trading day.
type DailyPrice struct {
	Opening float64 `json:"opening"`
	Closing float64 `json:"closing"`
}

// RateTable maps a date (DateLayout) to the number of USD for one EUR, so
// that eur = usd / rate.
type RateTable map[string]float64

// SymbolPriceTable maps a date (DateLayout) to the symbol's daily prices.
type SymbolPriceTable map[string]DailyPrice

// MarketData bundles every external table the tax engine reads.
type MarketData struct {
	Rates        RateTable                   `json:"rates"`
	SymbolPrices map[string]SymbolPriceTable `json:"symbolPrices"`
}

// ExchangeRate represents a currency exchange rate for a specific date.
type ExchangeRate struct {
	ID           string    `json:"id"`           // Unique identifier for the rate
	FromCurrency string    `json:"fromCurrency"` // Source currency code
	ToCurrency   string    `json:"toCurrency"`   // Target currency code
	Rate         float64   `json:"rate"`         // Units of ToCurrency for one FromCurrency
	Date         time.Time `json:"date"`         // Date the rate applies to
}

// SymbolPrice is a stored daily price point for a stock symbol.
type SymbolPrice struct {
	ID      string    `json:"id"`
	Symbol  string    `json:"symbol"`
	Date    time.Time `json:"date"`
	Opening float64   `json:"opening"`
	Closing float64   `json:"closing"`
}
