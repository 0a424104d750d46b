package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/validation"
)

// ReportIDParam is the URL parameter holding a stored report's ID.
const ReportIDParam = "reportID"

// RequireReportID rejects requests whose {reportID} URL parameter is missing
// or not a report ID with 400 Bad Request, so handlers below it never hit the
// store with a malformed key.
func RequireReportID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateReportID(chi.URLParam(r, ReportIDParam)); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid report ID", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
