package model

import "slices"

// Box identifies a box of the French income tax return.
type Box string

// Form boxes filled by the tax engine.
const (
	Box1TT Box = "1TT" // Acquisition gains above the 300k€ threshold (and SO acquisition gains)
	Box1TZ Box = "1TZ" // RSU acquisition gains below the threshold, after the 50% rebate
	Box1WZ Box = "1WZ" // The 50% rebate itself, equal to 1TZ
	Box1AJ Box = "1AJ" // Salary income
	Box3VG Box = "3VG" // Net capital gain
	Box3VH Box = "3VH" // Capital losses of previous years
)

// Boxes lists every form box in declaration order.
var Boxes = []Box{Box1TT, Box1TZ, Box1WZ, Box1AJ, Box3VG, Box3VH}

// Valid reports whether b is a known form box.
func (b Box) Valid() bool {
	return slices.Contains(Boxes, b)
}

// SellLeg describes the sale side of a taxable event, per share.
type SellLeg struct {
	USD  float64 `json:"usd"`
	Rate float64 `json:"rate"`
	EUR  float64 `json:"eur"`
	Date string  `json:"date"`
}

// AcquisitionLeg describes how a taxable event's acquisition was valued, per share.
type AcquisitionLeg struct {
	ValueUSD       float64           `json:"valueUsd"`
	ValueEUR       float64           `json:"valueEur"`
	CostUSD        float64           `json:"costUsd"`
	CostEUR        float64           `json:"costEur"`
	SymbolPrice    Optional[float64] `json:"symbolPrice"`
	SymbolPriceEUR Optional[float64] `json:"symbolPriceEur"`
	Rate           float64           `json:"rate"`
	Date           string            `json:"date"`
	// Description explains which valuation rule produced ValueUSD.
	Description             string `json:"description"`
	DateSymbolPriceAcquired string `json:"dateSymbolPriceAcquired,omitempty"`
}

// Gain is a gain expressed per share and for the whole event.
type Gain struct {
	PerShare float64 `json:"perShare"`
	Total    float64 `json:"total"`
}

// AcquisitionGain is the vesting or exercise gain, scaled by the French-origin fraction.
type AcquisitionGain struct {
	PerShare   float64 `json:"perShare"`
	Total      float64 `json:"total"`
	FractionFr float64 `json:"fractionFr"`
}

// TaxableEvent is the French tax view of one sale.
type TaxableEvent struct {
	Symbol          string          `json:"symbol"`
	PlanType        PlanType        `json:"planType"`
	QualifiedIn     Qualification   `json:"qualifiedIn"`
	Type            string          `json:"type"`
	Date            string          `json:"date"`
	Quantity        float64         `json:"quantity"`
	Sell            *SellLeg        `json:"sell"`
	Acquisition     AcquisitionLeg  `json:"acquisition"`
	CapitalGain     Gain            `json:"capitalGain"`
	AcquisitionGain AcquisitionGain `json:"acquisitionGain"`
}

// TaxableEventTypeSell is the only taxable event type produced from a gains
// and losses export, which lists sales only.
const TaxableEventTypeSell = "sell"

// DeclarationPage is one Form 2074 page 510 row, describing a single sale.
// Field 519 is a label on the paper form and carries no value.
type DeclarationPage struct {
	Designation         string  `json:"511"`
	SaleDate            string  `json:"512"` // DD/MM/YYYY
	SalePricePerShare   float64 `json:"514"` // 6 digit precision
	Quantity            float64 `json:"515"`
	TotalSalePrice      float64 `json:"516"`
	SaleFees            float64 `json:"517"`
	NetSalePrice        float64 `json:"518"`
	AcquisitionValue    float64 `json:"520"` // 2 digit precision, rounded up
	TotalAcquisition    float64 `json:"521"`
	AcquisitionFees     float64 `json:"522"`
	NetAcquisition      float64 `json:"523"`
	NetGain             float64 `json:"524"`
	InvalidationLoss    bool    `json:"525"`
	InvalidationLossNet float64 `json:"526"`
}

// GainsLosses splits capital results by sign.
type GainsLosses struct {
	Gains  float64 `json:"gains"`
	Losses float64 `json:"losses"`
}

// Page900 is the Form 2074 summary page.
type Page900 struct {
	Field903 GainsLosses `json:"903"`
}

// Form2074 is the capital gains declaration form.
type Form2074 struct {
	Page510 []DeclarationPage `json:"Page 510"`
	Page900 Page900           `json:"Page 900"`
}

// Explanation links a form box to the taxable events that contributed to it.
type Explanation struct {
	Box           Box            `json:"box"`
	Description   string         `json:"description"`
	TaxableEvents []TaxableEvent `json:"taxableEvents"`
}

// ExcludedEvent is a sale left out of every box because data was missing.
type ExcludedEvent struct {
	Symbol   string   `json:"symbol"`
	PlanType PlanType `json:"planType"`
	DateSold string   `json:"dateSold"`
	Reason   string   `json:"reason"`
}

// FrTaxes is the result of the French tax computation.
//
// FrTaxes is a value type: the With* methods return modified copies and never
// write through slices shared with the receiver.
type FrTaxes struct {
	Amount1TT      float64         `json:"1TT"`
	Amount1TZ      float64         `json:"1TZ"`
	Amount1WZ      float64         `json:"1WZ"`
	Amount1AJ      float64         `json:"1AJ"`
	Amount3VG      float64         `json:"3VG"`
	Amount3VH      float64         `json:"3VH"`
	Form2074       Form2074        `json:"Form 2074"`
	Explanations   []Explanation   `json:"explanations"`
	ExcludedEvents []ExcludedEvent `json:"excludedEvents"`
}

// EmptyFrTaxes returns a result with every box at zero.
func EmptyFrTaxes() FrTaxes {
	return FrTaxes{
		Form2074: Form2074{
			Page510: []DeclarationPage{},
		},
		Explanations:   []Explanation{},
		ExcludedEvents: []ExcludedEvent{},
	}
}

// Amount returns the value of box b.
func (t FrTaxes) Amount(b Box) float64 {
	switch b {
	case Box1TT:
		return t.Amount1TT
	case Box1TZ:
		return t.Amount1TZ
	case Box1WZ:
		return t.Amount1WZ
	case Box1AJ:
		return t.Amount1AJ
	case Box3VG:
		return t.Amount3VG
	case Box3VH:
		return t.Amount3VH
	}
	return 0
}

// WithAmount returns a copy of t with delta added to box b.
func (t FrTaxes) WithAmount(b Box, delta float64) FrTaxes {
	switch b {
	case Box1TT:
		t.Amount1TT += delta
	case Box1TZ:
		t.Amount1TZ += delta
	case Box1WZ:
		t.Amount1WZ += delta
	case Box1AJ:
		t.Amount1AJ += delta
	case Box3VG:
		t.Amount3VG += delta
	case Box3VH:
		t.Amount3VH += delta
	}
	return t
}

// WithExplanations returns a copy of t with explanations appended.
func (t FrTaxes) WithExplanations(explanations ...Explanation) FrTaxes {
	t.Explanations = append(slices.Clone(t.Explanations), explanations...)
	return t
}

// WithPages returns a copy of t with declaration pages appended and the
// page 900 summary updated accordingly.
func (t FrTaxes) WithPages(pages ...DeclarationPage) FrTaxes {
	t.Form2074.Page510 = append(slices.Clone(t.Form2074.Page510), pages...)
	for _, p := range pages {
		if p.NetGain > 0 {
			t.Form2074.Page900.Field903.Gains += p.NetGain
		} else {
			t.Form2074.Page900.Field903.Losses += p.NetGain
		}
	}
	return t
}

// WithExcluded returns a copy of t with excluded events appended.
func (t FrTaxes) WithExcluded(events ...ExcludedEvent) FrTaxes {
	t.ExcludedEvents = append(slices.Clone(t.ExcludedEvents), events...)
	return t
}

// ExcludedCount returns the number of sales left out because of missing data.
func (t FrTaxes) ExcludedCount() int {
	return len(t.ExcludedEvents)
}
