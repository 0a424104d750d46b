package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/validation"
)

// TaxHandler handles HTTP requests for tax computation endpoints.
type TaxHandler struct {
	taxService *service.TaxService
}

// NewTaxHandler creates a new TaxHandler with the provided service dependency.
func NewTaxHandler(taxService *service.TaxService) *TaxHandler {
	return &TaxHandler{
		taxService: taxService,
	}
}

// FrTaxes handles POST requests computing the French tax declaration of a
// set of sales.
//
// Endpoint: POST /api/taxes/fr
// Request body: TaxRequest
// Response: 200 OK with FrTaxesResult (201 Created when saved)
// Error: 400 Bad Request on invalid input
// Error: 502 Bad Gateway if market data could not be assembled
// Error: 503 Service Unavailable if saving is requested without an encryption key
func (h *TaxHandler) FrTaxes(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TaxRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateTaxRequest(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.taxService.ComputeFrTaxes(r.Context(), req)
	if err != nil {
		respondTaxError(w, err)
		return
	}

	status := http.StatusOK
	if result.ReportID != "" {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// Totals handles POST requests of the interactive calculator.
//
// Endpoint: POST /api/taxes/totals
// Request body: TotalsRequest
// Response: 200 OK with TotalsResult
// Error: 400 Bad Request on invalid input
func (h *TaxHandler) Totals(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TotalsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateTotalsRequest(req); err != nil {
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.taxService.CalcTotals(r.Context(), req))
}

// Export handles POST requests exporting sales as CSV.
//
// Endpoint: POST /api/taxes/export
// Request body: TaxRequest
// Response: 200 OK with text/csv attachment
// Error: 400 Bad Request on invalid input
// Error: 422 Unprocessable Entity if an exchange rate is missing
func (h *TaxHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TaxRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateTaxRequest(req); err != nil {
		respondValidationError(w, err)
		return
	}

	// Buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.taxService.ExportCSV(r.Context(), req, &buf); err != nil {
		respondTaxError(w, err)
		return
	}

	filename := "sales.csv"
	if req.TaxYear != 0 {
		filename = fmt.Sprintf("sales-%d.csv", req.TaxYear)
	}
	response.RespondAttachment(w, "text/csv; charset=utf-8", filename, buf.Bytes())
}

func respondTaxError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrIncompleteRates):
		response.RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrIncompleteRates.Error(), err.Error())
	case errors.Is(err, apperrors.ErrEncryptionNotConfigured):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrEncryptionNotConfigured.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInvalidDate), errors.Is(err, apperrors.ErrInvalidDateRange):
		response.RespondError(w, http.StatusBadRequest, "invalid dates", err.Error())
	case errors.Is(err, apperrors.ErrMarketDataUnavailable):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrMarketDataUnavailable.Error(), err.Error())
	case errors.Is(err, apperrors.ErrFailedToSaveReport):
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSaveReport.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToComputeTaxes.Error(), err.Error())
	}
}
