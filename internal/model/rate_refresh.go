package model

// RateRefreshResponse represents the response for exchange rate refresh operations.
// It indicates whether the refresh stored rates the database did not have yet.
type RateRefreshResponse struct {
	Status     string `json:"status"`     // "success" or "error"
	Message    string `json:"message"`    // Human-readable description of the result
	StartDate  string `json:"startDate"`  // First day of the refreshed range
	EndDate    string `json:"endDate"`    // Last day of the refreshed range
	RatesAdded int    `json:"ratesAdded"` // Number of rate records fetched and stored
}
