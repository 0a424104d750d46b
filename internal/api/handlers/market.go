package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/validation"
)

// MarketHandler handles HTTP requests for exchange rates and symbol prices.
type MarketHandler struct {
	marketDataService *service.MarketDataService
	refreshDays       int
}

// NewMarketHandler creates a new MarketHandler. Manual refreshes fetch the
// last refreshDays days.
func NewMarketHandler(marketDataService *service.MarketDataService, refreshDays int) *MarketHandler {
	return &MarketHandler{
		marketDataService: marketDataService,
		refreshDays:       refreshDays,
	}
}

// Rates handles GET requests for the EUR to USD rate of every day in a range.
//
// Endpoint: GET /api/market/rates?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Response: 200 OK with a date to rate map
// Error: 404 Not Found if no rate was published for the range
// Error: 502 Bad Gateway if the ECB could not be reached
func (h *MarketHandler) Rates(w http.ResponseWriter, r *http.Request) {
	dates, err := parseDateRange(r)
	if err != nil {
		respondValidationError(w, err)
		return
	}

	rates, err := h.marketDataService.GetRates(r.Context(), dates.StartDate, dates.EndDate)
	if err != nil {
		respondMarketError(w, err, "failed to retrieve exchange rates")
		return
	}
	respondJSON(w, http.StatusOK, rates)
}

// SymbolPrices handles GET requests for the daily prices of a symbol.
//
// Endpoint: GET /api/market/symbols/{symbol}/daily?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Response: 200 OK with a date to DailyPrice map
// Error: 404 Not Found if the symbol is unknown
func (h *MarketHandler) SymbolPrices(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" || len(symbol) > 15 {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidSymbol.Error(), "")
		return
	}

	dates, err := parseDateRange(r)
	if err != nil {
		respondValidationError(w, err)
		return
	}

	prices, err := h.marketDataService.GetSymbolPrices(r.Context(), symbol, dates.StartDate, dates.EndDate)
	if err != nil {
		respondMarketError(w, err, "failed to retrieve symbol prices")
		return
	}
	respondJSON(w, http.StatusOK, prices)
}

// RefreshRates handles POST requests forcing an ECB rate refresh.
//
// Endpoint: POST /api/market/rates/refresh
// Response: 200 OK with RateRefreshResponse
// Error: 502 Bad Gateway if the ECB could not be reached
func (h *MarketHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	resp, err := h.marketDataService.RefreshRates(r.Context(), h.refreshDays)
	if err != nil {
		respondMarketError(w, err, apperrors.ErrFailedToUpdateExchangeRate.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func parseDateRange(r *http.Request) (request.DateRange, error) {
	q := r.URL.Query()
	dates := request.DateRange{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	return dates, validation.ValidateDateRange(dates)
}

func respondMarketError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, apperrors.ErrExchangeRateNotFound), errors.Is(err, apperrors.ErrSymbolNotFound):
		response.RespondError(w, http.StatusNotFound, message, err.Error())
	case errors.Is(err, apperrors.ErrInvalidDate), errors.Is(err, apperrors.ErrInvalidDateRange):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, apperrors.ErrMarketDataUnavailable), errors.Is(err, apperrors.ErrFailedToRetrieveSymbolPrice):
		response.RespondError(w, http.StatusBadGateway, message, err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
