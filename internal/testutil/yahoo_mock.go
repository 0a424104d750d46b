package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined test data instead of making actual API calls.
type MockYahooClient struct {
	mu sync.Mutex
	// MockResponse is the response to return from query methods
	MockResponse yahoo.Response
	// MockError is the error to return from query methods
	MockError error
	// QueryCount tracks how many times a query method was called
	QueryCount int
}

// NewMockYahooClient creates a new mock Yahoo client with no price data.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		MockResponse: yahoo.Response{Chart: yahoo.Chart{Result: []yahoo.Result{}}},
	}
}

// QueryYahooSymbolByDateRange mocks the date range query with predefined test data.
// It returns the configured MockResponse and MockError.
func (m *MockYahooClient) QueryYahooSymbolByDateRange(_ context.Context, _ string, _, _ time.Time) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	if m.MockError != nil {
		return yahoo.Response{}, m.MockError
	}
	return m.MockResponse, nil
}

// ParseChart delegates to the real ParseChart method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseChart(yahooResult yahoo.Response) (yahoo.PriceChart, error) {
	return yahoo.NewFinanceClient("", 0).ParseChart(yahooResult)
}

// Queries returns the number of queries made so far.
func (m *MockYahooClient) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueryCount
}

// WithError configures the mock to return the specified error.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// WithResponse configures the mock to return the specified response.
func (m *MockYahooClient) WithResponse(resp yahoo.Response) *MockYahooClient {
	m.MockResponse = resp
	return m
}

// WithPrices configures the mock to return one trading day per date, with
// the given opening price and a closing price one dollar higher.
func (m *MockYahooClient) WithPrices(symbol string, opening map[string]float64) *MockYahooClient {
	m.MockResponse = CreateMockYahooResponse(symbol, opening)
	return m
}

// CreateMockYahooResponse creates a Yahoo Finance API response with one
// entry per date (YYYY-MM-DD), stamped at 14:30 UTC like a US market open.
func CreateMockYahooResponse(symbol string, opening map[string]float64) yahoo.Response {
	dates := make([]string, 0, len(opening))
	for date := range opening {
		dates = append(dates, date)
	}
	slices.Sort(dates)

	timestamps := make([]int64, len(dates))
	opens := make([]*float64, len(dates))
	closes := make([]*float64, len(dates))
	for i, date := range dates {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		timestamps[i] = d.Add(14*time.Hour + 30*time.Minute).Unix()
		open := opening[date]
		closePrice := open + 1
		opens[i] = &open
		closes[i] = &closePrice
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:       symbol,
						Currency:     "USD",
						ExchangeName: "NMS",
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{{Open: opens, Close: closes}},
					},
				},
			},
		},
	}
}

// CreateMockYahooErrorResponse creates a mock Yahoo response with an error.
func CreateMockYahooErrorResponse(code, description string) yahoo.Response {
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{},
			Error:  &yahoo.APIError{Code: code, Description: description},
		},
	}
}
