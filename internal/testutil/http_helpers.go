package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
)

// NewJSONRequest creates a request carrying body as JSON, as sent to the
// tax endpoints.
func NewJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRangeRequest creates a GET request for one of the market endpoints with
// the start_date and end_date query parameters. Empty dates are left out so
// tests can exercise the missing parameter errors.
//
//	req := testutil.NewRangeRequest("/api/market/rates", "2022-03-04", "2022-03-06")
func NewRangeRequest(path, startDate, endDate string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)

	q := req.URL.Query()
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	req.URL.RawQuery = q.Encode()
	return req
}

// NewReportRequest creates a request for /api/reports/{reportID} with the
// chi URL parameter already set, as the router would.
func NewReportRequest(method, reportID string) *http.Request {
	req := httptest.NewRequest(method, "/api/reports/"+reportID, nil)
	return WithURLParam(req, "reportID", reportID)
}

// WithURLParam adds a chi URL parameter to req, keeping any already set.
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return req
}
