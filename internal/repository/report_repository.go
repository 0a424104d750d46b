package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// StoredReport is a tax_report row. Payload is the sealed JSON of the result.
type StoredReport struct {
	model.TaxReportSummary
	Payload string
}

// ReportRepository provides data access methods for the tax_report table.
// It never sees report results in clear: payloads are sealed by the caller.
type ReportRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewReportRepository creates a new ReportRepository with the provided database connection.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// WithTx returns a new ReportRepository scoped to the provided transaction.
func (r *ReportRepository) WithTx(tx *sql.Tx) *ReportRepository {
	return &ReportRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ReportRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertReport stores a report.
func (r *ReportRepository) InsertReport(ctx context.Context, report StoredReport) error {
	query := `
		INSERT INTO tax_report (id, tax_year, label, event_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		report.ID,
		report.TaxYear,
		report.Label,
		report.EventCount,
		report.Payload,
		report.CreatedAt.UTC().Format(sqliteDateTime),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tax report: %w", err)
	}
	return nil
}

// GetReports lists every report, newest first, without payloads.
func (r *ReportRepository) GetReports(ctx context.Context) ([]model.TaxReportSummary, error) {
	query := `
		SELECT id, tax_year, label, event_count, created_at
		FROM tax_report
		ORDER BY created_at DESC, id
	`

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax_report table: %w", err)
	}
	defer rows.Close()

	reports := []model.TaxReportSummary{}
	for rows.Next() {
		var s model.TaxReportSummary
		var createdAtStr string
		if err := rows.Scan(&s.ID, &s.TaxYear, &s.Label, &s.EventCount, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan tax_report table results: %w", err)
		}
		if s.CreatedAt, err = ParseTime(createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		reports = append(reports, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax_report table: %w", err)
	}

	return reports, nil
}

// GetReport retrieves a single report with its sealed payload.
// Returns apperrors.ErrReportNotFound if no report has the given ID.
func (r *ReportRepository) GetReport(ctx context.Context, id string) (StoredReport, error) {
	query := `
		SELECT id, tax_year, label, event_count, created_at, payload
		FROM tax_report
		WHERE id = ?
	`

	var s StoredReport
	var createdAtStr string
	err := r.getQuerier().QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.TaxYear,
		&s.Label,
		&s.EventCount,
		&createdAtStr,
		&s.Payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredReport{}, apperrors.ErrReportNotFound
	}
	if err != nil {
		return StoredReport{}, fmt.Errorf("failed to query tax report: %w", err)
	}
	if s.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return StoredReport{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return s, nil
}

// DeleteReport removes a report.
// Returns apperrors.ErrReportNotFound if no report has the given ID.
func (r *ReportRepository) DeleteReport(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM tax_report WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tax report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrReportNotFound
	}
	return nil
}
