package model

// TotalsEvent is a sale entered in the interactive calculator, carrying its
// own exchange rates. Amounts are per share and in USD.
type TotalsEvent struct {
	Quantity     float64           `json:"quantity"`
	Proceeds     float64           `json:"proceeds"`
	AdjustedCost float64           `json:"adjustedCost"`
	DateAcquired string            `json:"dateAcquired"`
	DateSold     string            `json:"dateSold"`
	RateAcquired Optional[float64] `json:"rateAcquired"`
	RateSold     Optional[float64] `json:"rateSold"`
	FractionFr   float64           `json:"fractionFr"`
}

// Totals aggregates calculator events in EUR.
type Totals struct {
	Gain     float64 `json:"gain"`
	Loss     float64 `json:"loss"` // Zero or negative
	Income   float64 `json:"income"`
	IncomeFr float64 `json:"incomeFr"`
	Proceeds float64 `json:"proceeds"`
}

// RsuIncomeBoxes previews how an RSU acquisition income splits across boxes.
type RsuIncomeBoxes struct {
	Above1TT  float64 `json:"1TT"`
	Taxed1TZ  float64 `json:"1TZ"`
	Rebate1WZ float64 `json:"1WZ"`
}
