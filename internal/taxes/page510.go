package taxes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// CapitalGain is the Form 2074 rendition of a list of taxable events.
type CapitalGain struct {
	// Pages holds one page 510 per sale with a non-zero capital gain.
	Pages []model.DeclarationPage
	// Events are copies of the input events whose capital gain has been
	// replaced by the figures declared on their page.
	Events []model.TaxableEvent
	// Total is the sum of every page's net gain (field 524).
	Total float64
	// Declared is false when no event has a capital gain to declare.
	Declared bool
}

// BuildCapitalGain builds the declaration pages for events.
//
// The input events are not modified. The returned Events carry the rounded
// figures of the form so that per-event gains match the declaration exactly.
func BuildCapitalGain(events []model.TaxableEvent) CapitalGain {
	result := CapitalGain{Events: slices.Clone(events)}
	if len(events) == 0 || allZeroCapitalGain(events) {
		return result
	}
	result.Declared = true

	for i, event := range events {
		if event.Sell == nil || event.CapitalGain.Total == 0 {
			continue
		}

		page := newDeclarationPage(event)
		result.Pages = append(result.Pages, page)
		result.Total += page.NetGain

		reconciled := event
		reconciled.CapitalGain = model.Gain{
			PerShare: page.SalePricePerShare - page.AcquisitionValue,
			Total:    page.NetGain,
		}
		result.Events[i] = reconciled
	}
	return result
}

// AddCapitalGain declares the capital gain of events in taxes: pages are
// appended to Form 2074, their net gain is added to 3VG and explained with
// description.
func AddCapitalGain(taxes model.FrTaxes, description string, events []model.TaxableEvent) model.FrTaxes {
	return BuildCapitalGain(events).apply(taxes, description)
}

func (c CapitalGain) apply(taxes model.FrTaxes, description string) model.FrTaxes {
	if !c.Declared {
		return taxes
	}
	return taxes.
		WithAmount(model.Box3VG, c.Total).
		WithExplanations(model.Explanation{
			Box:           model.Box3VG,
			Description:   fmt.Sprintf("%s (%s€ as computed by form 2074)", description, FormatNumber(c.Total)),
			TaxableEvents: c.Events,
		}).
		WithPages(c.Pages...)
}

func newDeclarationPage(event model.TaxableEvent) model.DeclarationPage {
	quantity := floor0(event.Quantity)
	salePrice := floor6(event.Sell.EUR)
	// impots.gouv.fr rounds totals to the nearest euro.
	totalSale := round0(salePrice * quantity)
	// Rounding the acquisition value up lowers the declared gain.
	acquisitionValue := ceil2(event.Acquisition.ValueEUR)
	totalAcquisition := round0(acquisitionValue * quantity)

	return model.DeclarationPage{
		Designation:         fmt.Sprintf("%s (%s)", event.Symbol, event.PlanType.Description()),
		SaleDate:            formatFormDate(event.Sell.Date),
		SalePricePerShare:   salePrice,
		Quantity:            quantity,
		TotalSalePrice:      totalSale,
		SaleFees:            0,
		NetSalePrice:        totalSale,
		AcquisitionValue:    acquisitionValue,
		TotalAcquisition:    totalAcquisition,
		AcquisitionFees:     0,
		NetAcquisition:      totalAcquisition,
		NetGain:             totalSale - totalAcquisition,
		InvalidationLoss:    false,
		InvalidationLossNet: 0,
	}
}

func allZeroCapitalGain(events []model.TaxableEvent) bool {
	for _, e := range events {
		if e.CapitalGain.Total != 0 {
			return false
		}
	}
	return true
}

// formatFormDate turns YYYY-MM-DD into DD/MM/YYYY.
func formatFormDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
