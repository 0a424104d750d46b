package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrReportNotFound indicates that a saved tax report with the given ID does not exist.
	ErrReportNotFound = errors.New("tax report not found")

	// ErrSymbolNotFound indicates that a symbol lookup returned no results
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrExchangeRateNotFound indicates that no exchange rate was published for the requested range
	ErrExchangeRateNotFound = errors.New("exchange rate for currency/date not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrIncompleteRates indicates that an event lacks an exchange rate needed for an export.
	ErrIncompleteRates = errors.New("exchange rates are incomplete")

	// ErrEncryptionNotConfigured indicates that reports cannot be stored without an encryption key.
	ErrEncryptionNotConfigured = errors.New("report encryption key is not configured")

	// Validation errors for required fields
	ErrInvalidSymbol = errors.New("symbol is required")
	ErrInvalidDate   = errors.New("date parameter is required")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	// Market data errors
	ErrMarketDataUnavailable        = errors.New("market data unavailable")
	ErrFailedToRetrieveExchangeRate = errors.New("failed to retrieve exchange rate")
	ErrFailedToRetrieveSymbolPrice  = errors.New("failed to retrieve symbol price")
	ErrFailedToUpdateExchangeRate   = errors.New("failed to update exchange rate")

	// Report errors
	ErrFailedToRetrieveReports = errors.New("failed to retrieve tax reports")
	ErrFailedToSaveReport      = errors.New("failed to save tax report")
	ErrFailedToDecryptReport   = errors.New("failed to decrypt tax report")

	// Tax computation errors
	ErrFailedToComputeTaxes = errors.New("failed to compute taxes")
	ErrFailedToExport       = errors.New("failed to export sales")

	// System operation errors
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)
