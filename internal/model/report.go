package model

import "time"

// TaxReport is a saved tax computation.
type TaxReport struct {
	ID         string    `json:"id"`
	TaxYear    int       `json:"taxYear"`
	Label      string    `json:"label"`
	EventCount int       `json:"eventCount"`
	CreatedAt  time.Time `json:"createdAt"`
	Result     FrTaxes   `json:"result"`
}

// TaxReportSummary is the listing view of a saved report, without its payload.
type TaxReportSummary struct {
	ID         string    `json:"id"`
	TaxYear    int       `json:"taxYear"`
	Label      string    `json:"label"`
	EventCount int       `json:"eventCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FrTaxesResult is a tax computation with the ID of the saved report, if any.
type FrTaxesResult struct {
	FrTaxes
	ReportID string `json:"reportId,omitempty"`
}

// TotalsResult is the calculator output. Totals is nil when no event had
// both exchange rates.
type TotalsResult struct {
	Totals         *Totals        `json:"totals"`
	RsuIncomeBoxes RsuIncomeBoxes `json:"rsuIncomeBoxes"`
}
