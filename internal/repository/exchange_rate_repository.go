package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// ExchangeRateRepository provides data access methods for the exchange_rate table.
type ExchangeRateRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewExchangeRateRepository creates a new ExchangeRateRepository with the provided database connection.
func NewExchangeRateRepository(db *sql.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// WithTx returns a new ExchangeRateRepository scoped to the provided transaction.
func (r *ExchangeRateRepository) WithTx(tx *sql.Tx) *ExchangeRateRepository {
	return &ExchangeRateRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *ExchangeRateRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetRates retrieves the rates from one currency to another between startDate
// and endDate inclusive, ordered by date.
func (r *ExchangeRateRepository) GetRates(ctx context.Context, from, to, startDate, endDate string) ([]model.ExchangeRate, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, date
		FROM exchange_rate
		WHERE from_currency = ? AND to_currency = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, from, to, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange_rate table: %w", err)
	}
	defer rows.Close()

	rates := []model.ExchangeRate{}
	for rows.Next() {
		var er model.ExchangeRate
		var dateStr string

		if err := rows.Scan(&er.ID, &er.FromCurrency, &er.ToCurrency, &er.Rate, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan exchange_rate table results: %w", err)
		}

		er.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exchange rate date: %w", err)
		}
		rates = append(rates, er)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange_rate table: %w", err)
	}

	return rates, nil
}

// UpsertRates stores rates, replacing the rate of any currency pair and date
// already present. Missing IDs are generated.
func (r *ExchangeRateRepository) UpsertRates(ctx context.Context, rates []model.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rate (id, from_currency, to_currency, rate, date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (from_currency, to_currency, date) DO UPDATE SET rate = excluded.rate
	`

	for _, er := range rates {
		id := er.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := r.getQuerier().ExecContext(ctx, query,
			id,
			er.FromCurrency,
			er.ToCurrency,
			er.Rate,
			er.Date.Format(model.DateLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert exchange rate for %s: %w", er.Date.Format(model.DateLayout), err)
		}
	}
	return nil
}

// GetLatestRateDate returns the most recent stored date for a currency pair,
// or an empty string when none is stored.
func (r *ExchangeRateRepository) GetLatestRateDate(ctx context.Context, from, to string) (string, error) {
	var latest sql.NullString
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT MAX(date) FROM exchange_rate WHERE from_currency = ? AND to_currency = ?`,
		from, to,
	).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("failed to query latest exchange rate: %w", err)
	}
	if !latest.Valid {
		return "", nil
	}
	t, err := ParseTime(latest.String)
	if err != nil {
		return "", fmt.Errorf("failed to parse exchange rate date: %w", err)
	}
	return t.Format(model.DateLayout), nil
}
