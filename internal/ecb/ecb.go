// Package ecb fetches euro foreign exchange reference rates from the European
// Central Bank data API.
package ecb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// DefaultBaseURL is the ECB data API endpoint. It can be overridden for
// testing or to use a mirror.
const DefaultBaseURL = "https://data-api.ecb.europa.eu"

// usdSeries is the daily USD per EUR reference rate series.
const usdSeries = "EXR/D.USD.EUR.SP00.A"

// RateFetcher is implemented by Client and by test doubles.
type RateFetcher interface {
	FetchUSDRates(ctx context.Context, startDate, endDate string) (model.RateTable, error)
}

// Client queries the ECB data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// response is the subset of the SDMX-JSON "dataonly" message we read.
// Observations are keyed by the index of their date in
// Structure.Dimensions.Observation[0].Values.
type response struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]*float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
	Structure struct {
		Dimensions struct {
			Observation []struct {
				ID     string `json:"id"`
				Values []struct {
					ID string `json:"id"`
				} `json:"values"`
			} `json:"observation"`
		} `json:"dimensions"`
	} `json:"structure"`
}

// FetchUSDRates returns the published USD per EUR rates between startDate and
// endDate inclusive. Days without publication (weekends, TARGET holidays) are
// absent from the table. An empty table is not an error.
func (c *Client) FetchUSDRates(ctx context.Context, startDate, endDate string) (model.RateTable, error) {
	q := url.Values{}
	q.Set("format", "jsondata")
	q.Set("detail", "dataonly")
	q.Set("startPeriod", startDate)
	q.Set("endPeriod", endDate)
	u := fmt.Sprintf("%s/service/data/%s?%s", c.baseURL, usdSeries, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecb request failed: %w", err)
	}
	defer resp.Body.Close()

	// The API answers 404 when the range holds no observation.
	if resp.StatusCode == http.StatusNotFound {
		return model.RateTable{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ecb error: received status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return model.RateTable{}, nil
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode ecb response: %w", err)
	}
	return parseRates(r)
}

// parseRates extracts the date to rate table from a decoded response.
func parseRates(r response) (model.RateTable, error) {
	rates := model.RateTable{}
	if len(r.DataSets) == 0 {
		return rates, nil
	}
	if len(r.Structure.Dimensions.Observation) == 0 {
		return nil, fmt.Errorf("ecb response has no observation dimension")
	}
	dates := r.Structure.Dimensions.Observation[0].Values

	for _, series := range r.DataSets[0].Series {
		for key, values := range series.Observations {
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= len(dates) {
				return nil, fmt.Errorf("ecb observation %q has no matching date", key)
			}
			if len(values) == 0 || values[0] == nil {
				continue
			}
			rates[dates[index].ID] = *values[0]
		}
	}
	return rates, nil
}

// Dates returns the dates of a table in ascending order.
func Dates(rates model.RateTable) []string {
	dates := make([]string, 0, len(rates))
	for d := range rates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
