package model

// HealthStatus is the body of the health endpoint. Rates is the last
// EUR/USD date held in the local cache, empty until the first fetch.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Rates    string `json:"rates_through,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VersionInfo describes the running build and its database.
type VersionInfo struct {
	AppVersion       string          `json:"app_version"`
	DbVersion        string          `json:"db_version"`
	Features         map[string]bool `json:"features"`
	RateSource       string          `json:"rate_source"`
	MigrationNeeded  bool            `json:"migration_needed"`
	MigrationMessage *string         `json:"migration_message,omitempty"`
}
