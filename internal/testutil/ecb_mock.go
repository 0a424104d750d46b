package testutil

import (
	"context"
	"sync"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// MockECBClient is a mock implementation of ecb.RateFetcher for testing.
// It returns the configured rates that fall within the requested range.
type MockECBClient struct {
	mu         sync.Mutex
	Rates      model.RateTable
	MockError  error
	QueryCount int
}

// NewMockECBClient creates a mock ECB client publishing rates.
func NewMockECBClient(rates model.RateTable) *MockECBClient {
	if rates == nil {
		rates = model.RateTable{}
	}
	return &MockECBClient{Rates: rates}
}

// FetchUSDRates returns the configured rates between startDate and endDate.
func (m *MockECBClient) FetchUSDRates(_ context.Context, startDate, endDate string) (model.RateTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	if m.MockError != nil {
		return nil, m.MockError
	}
	table := model.RateTable{}
	for date, rate := range m.Rates {
		if date >= startDate && date <= endDate {
			table[date] = rate
		}
	}
	return table, nil
}

// Queries returns the number of fetches made so far.
func (m *MockECBClient) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueryCount
}

// WithError configures the mock to return the specified error.
func (m *MockECBClient) WithError(err error) *MockECBClient {
	m.MockError = err
	return m
}
