package request

import "github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"

// TaxRequest is the body of the French tax computation and export endpoints.
// Rates and SymbolPrices are optional; when absent they are assembled from
// the market data cache.
type TaxRequest struct {
	Events       []model.SaleEvent                 `json:"events"`
	Fractions    []float64                         `json:"fractions,omitempty"`
	Rates        model.RateTable                   `json:"rates,omitempty"`
	SymbolPrices map[string]model.SymbolPriceTable `json:"symbolPrices,omitempty"`
	Save         bool                              `json:"save,omitempty"`
	Label        string                            `json:"label,omitempty"`
	TaxYear      int                               `json:"taxYear,omitempty"`
}

// TotalsRequest is the body of the calculator endpoint. Events without
// rates get them from the market data cache.
type TotalsRequest struct {
	Events []model.TotalsEvent `json:"events"`
}

// DateRange holds the start_date and end_date query parameters.
type DateRange struct {
	StartDate string
	EndDate   string
}
