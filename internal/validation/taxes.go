package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// maxEvents bounds the number of sale events accepted in one request.
const maxEvents = 5000

// ValidateTaxRequest validates the body of a French tax computation.
//
// Required fields:
//   - events: at least one sale event, each valid per ValidateSaleEvent
//
// Optional fields (validated if provided):
//   - fractions: one value between 0 and 1 per event
//   - rates: dates in YYYY-MM-DD format and positive rates
//   - label: 100 characters or less
//   - taxYear: between 2000 and 2100
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateTaxRequest(req request.TaxRequest) error {
	errors := make(map[string]string)

	validateEvents(req.Events, errors)

	if req.Fractions != nil {
		if len(req.Fractions) != len(req.Events) {
			errors["fractions"] = fmt.Sprintf("expected %d fractions, got %d", len(req.Events), len(req.Fractions))
		} else {
			for i, f := range req.Fractions {
				if f < 0 || f > 1 {
					errors[fmt.Sprintf("fractions[%d]", i)] = "fraction must be between 0 and 1"
				}
			}
		}
	}

	for date, rate := range req.Rates {
		if !isDate(date) {
			errors["rates"] = fmt.Sprintf("invalid date: %s", date)
		} else if rate <= 0 {
			errors["rates"] = fmt.Sprintf("rate for %s must be positive", date)
		}
	}

	if len(req.Label) > 100 {
		errors["label"] = "label must be 100 characters or less"
	}
	if req.TaxYear != 0 && (req.TaxYear < 2000 || req.TaxYear > 2100) {
		errors["taxYear"] = "taxYear must be between 2000 and 2100"
	}

	return orNil(errors)
}

// ValidateSaleEvent validates a single sale event and returns its field errors.
func ValidateSaleEvent(event model.SaleEvent) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(event.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	}
	if !event.PlanType.Valid() {
		errors["planType"] = fmt.Sprintf("invalid plan type: %s", event.PlanType)
	}
	if !event.QualifiedIn.Valid() {
		errors["qualifiedIn"] = fmt.Sprintf("invalid qualification: %s", event.QualifiedIn)
	}
	if msg := checkQuantity(event.Quantity); msg != "" {
		errors["quantity"] = msg
	}

	acquiredOK := checkDate("dateAcquired", event.DateAcquired, errors)
	soldOK := checkDate("dateSold", event.DateSold, errors)
	if acquiredOK && soldOK && event.DateAcquired > event.DateSold {
		errors["dateSold"] = "dateSold must not be before dateAcquired"
	}

	if event.Proceeds < 0 {
		errors["proceeds"] = "proceeds must not be negative"
	}
	if event.AdjustedCost < 0 {
		errors["adjustedCost"] = "adjustedCost must not be negative"
	}
	if event.AcquisitionCost < 0 {
		errors["acquisitionCost"] = "acquisitionCost must not be negative"
	}
	return errors
}

// ValidateTotalsRequest validates the body of a calculator request.
func ValidateTotalsRequest(req request.TotalsRequest) error {
	errors := make(map[string]string)

	if len(req.Events) == 0 {
		errors["events"] = "at least one event is required"
	} else if len(req.Events) > maxEvents {
		errors["events"] = fmt.Sprintf("at most %d events are accepted", maxEvents)
	}

	for i, e := range req.Events {
		prefix := fmt.Sprintf("events[%d].", i)
		if msg := checkQuantity(e.Quantity); msg != "" {
			errors[prefix+"quantity"] = msg
		}
		if e.FractionFr < 0 || e.FractionFr > 1 {
			errors[prefix+"fractionFr"] = "fractionFr must be between 0 and 1"
		}
		checkDate(prefix+"dateAcquired", e.DateAcquired, errors)
		checkDate(prefix+"dateSold", e.DateSold, errors)
		if rate, ok := e.RateAcquired.Get(); ok && rate <= 0 {
			errors[prefix+"rateAcquired"] = "rateAcquired must be positive"
		}
		if rate, ok := e.RateSold.Get(); ok && rate <= 0 {
			errors[prefix+"rateSold"] = "rateSold must be positive"
		}
	}

	return orNil(errors)
}

// ValidateDateRange validates the start_date and end_date query parameters.
func ValidateDateRange(r request.DateRange) error {
	errors := make(map[string]string)

	startOK := checkDate("start_date", r.StartDate, errors)
	endOK := checkDate("end_date", r.EndDate, errors)
	if startOK && endOK && r.StartDate > r.EndDate {
		errors["end_date"] = "end_date must not be before start_date"
	}

	return orNil(errors)
}

func validateEvents(events []model.SaleEvent, errors map[string]string) {
	if len(events) == 0 {
		errors["events"] = "at least one event is required"
		return
	}
	if len(events) > maxEvents {
		errors["events"] = fmt.Sprintf("at most %d events are accepted", maxEvents)
		return
	}
	for i, e := range events {
		for field, msg := range ValidateSaleEvent(e) {
			errors[fmt.Sprintf("events[%d].%s", i, field)] = msg
		}
	}
}

func checkDate(field, value string, errors map[string]string) bool {
	if strings.TrimSpace(value) == "" {
		errors[field] = field + " is required"
		return false
	}
	if !isDate(value) {
		errors[field] = fmt.Sprintf("%s must be in YYYY-MM-DD format", field)
		return false
	}
	return true
}

func isDate(value string) bool {
	_, err := time.Parse(model.DateLayout, value)
	return err == nil
}

// checkQuantity returns the error for a share count that is not a whole
// number of at least one, or "".
func checkQuantity(q float64) string {
	switch {
	case q <= 0:
		return "quantity must be positive"
	case q != math.Trunc(q):
		return "quantity must be a whole number of shares"
	}
	return ""
}
