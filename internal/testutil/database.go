package testutil

import (
	"database/sql"
	"testing"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/database"

	_ "modernc.org/sqlite" // Test Package
)

// Table names a table created by the migrations.
type Table string

// Tables of the schema.
const (
	ReportTable       Table = "tax_report"
	ExchangeRateTable Table = "exchange_rate"
	SymbolPriceTable  Table = "symbol_price"
)

// SetupTestDB returns an in-memory database migrated to the latest schema.
// It is closed when the test completes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a new database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Configure(db, "PRAGMA journal_mode = MEMORY"); err != nil {
		t.Fatalf("Failed to configure test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// AssertRowCount fails the test unless table holds expected rows.
func AssertRowCount(t *testing.T, db *sql.DB, table Table, expected int) {
	t.Helper()

	var count int
	//nolint:gosec // G202: table is one of the Table constants
	if err := db.QueryRow("SELECT COUNT(*) FROM " + string(table)).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	if count != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, count)
	}
}
