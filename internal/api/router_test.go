package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/config"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/testutil"
)

func newTestRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	md := testutil.NewTestMarketDataService(t, db, nil, nil)

	cfg := &config.Config{
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Scheduler: config.SchedulerConfig{RateRefreshDays: 7},
		RateLimit: config.RateLimitConfig{Interval: time.Hour, Burst: burst},
	}
	return api.NewRouter(api.Services{
		System:     testutil.NewTestSystemService(t, db),
		Tax:        testutil.NewTestTaxService(t, db, md),
		MarketData: md,
	}, cfg)
}

func TestNewRouter(t *testing.T) {
	const apiKey = "router-test-key"
	t.Setenv("INTERNAL_API_KEY", apiKey)

	tests := []struct {
		name       string
		method     string
		path       string
		auth       bool
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/system/health", false, http.StatusOK},
		{"version", http.MethodGet, "/api/system/version", false, http.StatusOK},
		{"report list", http.MethodGet, "/api/reports", false, http.StatusOK},
		{"invalid report id", http.MethodGet, "/api/reports/not-a-uuid", false, http.StatusBadRequest},
		{"delete requires API key", http.MethodDelete, "/api/reports/" + testutil.MakeID(), false, http.StatusUnauthorized},
		{"delete unknown report", http.MethodDelete, "/api/reports/" + testutil.MakeID(), true, http.StatusNotFound},
		{"refresh requires API key", http.MethodPost, "/api/market/rates/refresh", false, http.StatusUnauthorized},
		{"rates without dates", http.MethodGet, "/api/market/rates", false, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/portfolio", false, http.StatusNotFound},
	}

	router := newTestRouter(t, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("X-API-Key", apiKey)
				req.Header.Set("X-Time-Token", middleware.GenerateTimeToken(apiKey))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestNewRouter_RateLimit(t *testing.T) {
	router := newTestRouter(t, 1)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		if w.Code != want {
			t.Errorf("Request %d: expected %d, got %d", i, want, w.Code)
		}
	}

	// system endpoints are not limited
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for health, got %d", w.Code)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports/"+testutil.MakeID(), nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	req.Header.Set("Access-Control-Request-Headers", "X-API-Key, X-Time-Token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != http.MethodDelete {
		t.Errorf("Expected DELETE to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected unknown origin to be refused, got %q", got)
	}
}
