package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// SymbolPriceRepository provides data access methods for the symbol_price table.
// It caches daily opening and closing prices fetched from Yahoo Finance.
type SymbolPriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSymbolPriceRepository creates a new SymbolPriceRepository with the provided database connection.
func NewSymbolPriceRepository(db *sql.DB) *SymbolPriceRepository {
	return &SymbolPriceRepository{db: db}
}

// WithTx returns a new SymbolPriceRepository scoped to the provided transaction.
func (r *SymbolPriceRepository) WithTx(tx *sql.Tx) *SymbolPriceRepository {
	return &SymbolPriceRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SymbolPriceRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPrices retrieves the prices of symbol between startDate and endDate
// inclusive, ordered by date.
func (r *SymbolPriceRepository) GetPrices(ctx context.Context, symbol, startDate, endDate string) ([]model.SymbolPrice, error) {
	query := `
		SELECT id, symbol, date, opening, closing
		FROM symbol_price
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.SymbolPrice{}
	for rows.Next() {
		var p model.SymbolPrice
		var dateStr string

		if err := rows.Scan(&p.ID, &p.Symbol, &dateStr, &p.Opening, &p.Closing); err != nil {
			return nil, fmt.Errorf("failed to scan symbol_price table results: %w", err)
		}

		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse symbol price date: %w", err)
		}
		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol_price table: %w", err)
	}

	return prices, nil
}

// UpsertPrices stores prices, replacing any price already stored for the same
// symbol and date.
func (r *SymbolPriceRepository) UpsertPrices(ctx context.Context, prices []model.SymbolPrice) error {
	query := `
		INSERT INTO symbol_price (id, symbol, date, opening, closing)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET opening = excluded.opening, closing = excluded.closing
	`

	for _, p := range prices {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := r.getQuerier().ExecContext(ctx, query,
			id,
			p.Symbol,
			p.Date.Format(model.DateLayout),
			p.Opening,
			p.Closing,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s price for %s: %w", p.Symbol, p.Date.Format(model.DateLayout), err)
		}
	}
	return nil
}
