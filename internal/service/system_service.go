package service

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"strconv"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/database"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/version"
)

// RateSource is reported by the version endpoint as the origin of the
// EUR/USD reference rates.
const RateSource = "ECB EXR D.USD.EUR.SP00.A"

// RateCoverage reports how far the local exchange rate cache reaches.
type RateCoverage interface {
	GetLatestRateDate(ctx context.Context, from, to string) (string, error)
}

// SystemService reports on the database and the market data cache.
type SystemService struct {
	db       *sql.DB
	rates    RateCoverage
	features map[string]bool
}

// NewSystemService creates a new SystemService. Features lists the optional
// capabilities enabled by configuration, reported by CheckVersion.
func NewSystemService(db *sql.DB, rates RateCoverage, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		rates:    rates,
		features: features,
	}
}

// CheckHealth pings the database and reads the last cached EUR/USD date.
// A failing ping is returned as the error; the status is always filled in.
func (s *SystemService) CheckHealth(ctx context.Context) (model.HealthStatus, error) {
	if err := database.HealthCheck(s.db); err != nil {
		return model.HealthStatus{Status: "unhealthy", Database: "disconnected", Error: err.Error()}, err
	}

	status := model.HealthStatus{Status: "healthy", Database: "connected"}
	latest, err := s.rates.GetLatestRateDate(ctx, "EUR", "USD")
	if err != nil {
		return model.HealthStatus{Status: "unhealthy", Database: "connected", Error: err.Error()}, err
	}
	status.Rates = latest
	return status, nil
}

// CheckVersion reports the application version and compares the applied
// schema version with the newest embedded migration.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	applied, err := database.SchemaVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}
	latest, err := database.LatestSchemaVersion()
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(applied, 10),
		Features:   maps.Clone(s.features),
		RateSource: RateSource,
	}
	if info.Features == nil {
		info.Features = map[string]bool{}
	}
	if applied < latest {
		msg := fmt.Sprintf("database schema is at version %d, latest is %d", applied, latest)
		info.MigrationNeeded = true
		info.MigrationMessage = &msg
	}
	return info, nil
}
