package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
)

// ReportHandler handles HTTP requests for saved tax reports.
type ReportHandler struct {
	taxService *service.TaxService
}

// NewReportHandler creates a new ReportHandler with the provided service dependency.
func NewReportHandler(taxService *service.TaxService) *ReportHandler {
	return &ReportHandler{
		taxService: taxService,
	}
}

// Reports handles GET requests listing saved reports, newest first.
//
// Endpoint: GET /api/reports
// Response: 200 OK with array of TaxReportSummary
func (h *ReportHandler) Reports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.taxService.GetReports(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveReports.Error(), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Report handles GET requests for one decrypted report.
//
// Endpoint: GET /api/reports/{reportID}
// Response: 200 OK with TaxReport
// Error: 404 Not Found if the report does not exist
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.taxService.GetReport(r.Context(), chi.URLParam(r, custommiddleware.ReportIDParam))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrReportNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrReportNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrEncryptionNotConfigured):
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrEncryptionNotConfigured.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to retrieve tax report", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// DeleteReport handles DELETE requests removing a report.
//
// Endpoint: DELETE /api/reports/{reportID}
// Response: 204 No Content
// Error: 404 Not Found if the report does not exist
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	err := h.taxService.DeleteReport(r.Context(), chi.URLParam(r, custommiddleware.ReportIDParam))
	if err != nil {
		if errors.Is(err, apperrors.ErrReportNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrReportNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete tax report", err.Error())
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
