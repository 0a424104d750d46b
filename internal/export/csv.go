// Package export writes sale events in spreadsheet friendly formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/taxes"
)

// Columns is the CSV header row.
var Columns = []string{
	"Quantity",
	"% Cost From French Origin",
	"Date Acquired",
	"Currency Rate",
	"Adjusted Cost Basis / Share",
	"Adjusted Cost Basis / Share (€)",
	"Adjusted Cost Basis From French Origin / Share (€)",
	"Date Sold",
	"Currency Rate",
	"Proceeds / Share",
	"Proceeds / Share (€)",
	"Adjusted Cost Basis (€)",
	"Adjusted Cost Basis From French Origin (€)",
	"Proceeds (€)",
	"Adjusted Gain / Loss (€)",
}

// WriteCSV writes one row per event converted to EUR. Nothing is written
// when an event lacks an exchange rate; the error wraps
// apperrors.ErrIncompleteRates.
func WriteCSV(w io.Writer, events []model.TotalsEvent) error {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, Columns)

	for i, e := range events {
		rateAcquired, okAcquired := e.RateAcquired.Get()
		rateSold, okSold := e.RateSold.Get()
		if !okAcquired || !okSold || rateAcquired <= 0 || rateSold <= 0 {
			return fmt.Errorf("%w: row %d sold on %s", apperrors.ErrIncompleteRates, i+1, e.DateSold)
		}

		rows = append(rows, []string{
			number(e.Quantity),
			number(e.FractionFr),
			e.DateAcquired,
			number(rateAcquired),
			number(e.AdjustedCost),
			number(e.AdjustedCost / rateAcquired),
			number(e.AdjustedCost * e.FractionFr / rateAcquired),
			e.DateSold,
			number(rateSold),
			number(e.Proceeds),
			number(e.Proceeds / rateSold),
			number(e.AdjustedCost * e.Quantity / rateAcquired),
			number(e.AdjustedCost * e.Quantity * e.FractionFr / rateAcquired),
			number(e.Proceeds * e.Quantity / rateSold),
			number(taxes.AdjustedGainLoss(e.Quantity, e.AdjustedCost, e.Proceeds, rateAcquired, rateSold)),
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
