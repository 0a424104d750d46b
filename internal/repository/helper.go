package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteDateTime is the layout of SQLite's CURRENT_TIMESTAMP.
const sqliteDateTime = "2006-01-02 15:04:05"

// ParseTime parses a date string in "2006-01-02", SQLite datetime or RFC3339
// format. SQLite returns DATE columns in either form depending on how they
// were written.
func ParseTime(str string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{"2006-01-02", sqliteDateTime, time.RFC3339Nano} {
		t, err := time.Parse(layout, str)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %w", lastErr)
}
