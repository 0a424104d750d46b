package model

// DateLayout is the calendar date format used for every date carried by sale
// events, rate tables and price tables.
const DateLayout = "2006-01-02"

// PlanType identifies the equity compensation plan a sold share came from.
type PlanType string

// Supported plan types.
const (
	PlanTypeESPP PlanType = "ESPP" // Employee stock purchase plan
	PlanTypeRS   PlanType = "RS"   // Restricted stock (RSU)
	PlanTypeSO   PlanType = "SO"   // Stock option
)

// Valid reports whether p is one of the supported plan types.
func (p PlanType) Valid() bool {
	switch p {
	case PlanTypeESPP, PlanTypeRS, PlanTypeSO:
		return true
	}
	return false
}

// Description returns the label used on Form 2074 designations.
func (p PlanType) Description() string {
	switch p {
	case PlanTypeSO:
		return "Stock Options"
	case PlanTypeRS:
		return "RSU"
	default:
		return "ESPP"
	}
}

// Qualification is the jurisdiction under which a plan is tax-qualified.
type Qualification string

// Supported qualification jurisdictions.
const (
	QualifiedFR Qualification = "fr"
	QualifiedUS Qualification = "us"
)

// Valid reports whether q is one of the supported jurisdictions.
func (q Qualification) Valid() bool {
	return q == QualifiedFR || q == QualifiedUS
}

// SaleEvent is a single sale line of a brokerage gains and losses export.
// All amounts are per share and in USD. Dates use DateLayout.
type SaleEvent struct {
	Symbol                   string        `json:"symbol"`
	PlanType                 PlanType      `json:"planType"`
	Quantity                 float64       `json:"quantity"`
	DateAcquired             string        `json:"dateAcquired"`
	DateSold                 string        `json:"dateSold"`
	Proceeds                 float64       `json:"proceeds"`                 // Sale price per share
	AdjustedCost             float64       `json:"adjustedCost"`             // Broker-reported adjusted cost basis per share
	AcquisitionCost          float64       `json:"acquisitionCost"`          // Out-of-pocket cost per share (0 for RSU, grant price for SO)
	PurchaseDateFairMktValue float64       `json:"purchaseDateFairMktValue"` // Used when no market price exists (pre-IPO)
	QualifiedIn              Qualification `json:"qualifiedIn"`
}

// EnrichedSaleEvent is a SaleEvent with the market data needed to tax it.
type EnrichedSaleEvent struct {
	SaleEvent
	RateAcquired        Optional[float64] `json:"rateAcquired"`
	RateSold            Optional[float64] `json:"rateSold"`
	SymbolPriceAcquired Optional[float64] `json:"symbolPriceAcquired"`
	// DateSymbolPriceAcquired is set when no price existed on DateAcquired
	// (weekend, holiday) and an earlier trading day was used instead.
	DateSymbolPriceAcquired string `json:"dateSymbolPriceAcquired,omitempty"`
	// FractionFrIncome is the share of the acquisition gain attributable to
	// French residency, between 0 and 1.
	FractionFrIncome float64 `json:"fractionFrIncome"`
}

// IsSameDay reports whether the shares were sold on the day they were
// acquired, which is treated as a sell to cover.
func (e EnrichedSaleEvent) IsSameDay() bool {
	return e.DateAcquired == e.DateSold
}
