package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/encryption"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/export"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/taxes"
)

// MarketDataProvider supplies the market tables the tax engine reads.
type MarketDataProvider interface {
	MarketDataFor(ctx context.Context, events []model.SaleEvent) (model.MarketData, error)
	GetRates(ctx context.Context, startDate, endDate string) (model.RateTable, error)
}

// TaxService orchestrates tax computations, saved reports, the totals
// calculator and exports.
type TaxService struct {
	reportRepo *repository.ReportRepository
	marketData MarketDataProvider
	sealer     *encryption.Sealer
	now        func() time.Time
}

// NewTaxService creates a new TaxService. Saving reports requires a sealer;
// with a nil sealer computations still work but nothing can be stored.
func NewTaxService(
	reportRepo *repository.ReportRepository,
	marketData MarketDataProvider,
	sealer *encryption.Sealer,
) *TaxService {
	return &TaxService{
		reportRepo: reportRepo,
		marketData: marketData,
		sealer:     sealer,
		now:        time.Now,
	}
}

// ComputeFrTaxes computes the French declaration for the requested events and
// saves it when req.Save is set.
func (s *TaxService) ComputeFrTaxes(ctx context.Context, req request.TaxRequest) (model.FrTaxesResult, error) {
	market, err := s.marketFor(ctx, req)
	if err != nil {
		return model.FrTaxesResult{}, err
	}

	result := model.FrTaxesResult{
		FrTaxes: taxes.ComputeFrTaxes(req.Events, market, req.Fractions),
	}
	log.Debug().
		Int("events", len(req.Events)).
		Int("excluded", result.ExcludedCount()).
		Msg("computed french taxes")

	if req.Save {
		id, err := s.saveReport(ctx, req, result.FrTaxes)
		if err != nil {
			return model.FrTaxesResult{}, err
		}
		result.ReportID = id
	}
	return result, nil
}

// ExportCSV enriches the requested events and writes them to w as CSV.
func (s *TaxService) ExportCSV(ctx context.Context, req request.TaxRequest, w io.Writer) error {
	market, err := s.marketFor(ctx, req)
	if err != nil {
		return err
	}

	enriched := taxes.Enrich(req.Events, market, req.Fractions)
	rows := make([]model.TotalsEvent, len(enriched))
	for i, e := range enriched {
		rows[i] = taxes.TotalsEventFrom(e)
	}

	if err := export.WriteCSV(w, rows); err != nil {
		if errors.Is(err, apperrors.ErrIncompleteRates) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToExport, err)
	}
	return nil
}

// CalcTotals sums calculator events in EUR and previews the RSU income
// boxes. Events without rates get them from the market data cache; when the
// cache cannot provide them the events are left out of the totals.
func (s *TaxService) CalcTotals(ctx context.Context, req request.TotalsRequest) model.TotalsResult {
	events := s.fillTotalsRates(ctx, req.Events)
	totals := taxes.CalcTotals(events)

	result := model.TotalsResult{Totals: totals}
	if totals != nil {
		result.RsuIncomeBoxes = taxes.RsuIncomeBoxesFor(totals.IncomeFr)
	}
	return result
}

// GetReports lists saved reports without their results.
func (s *TaxService) GetReports(ctx context.Context) ([]model.TaxReportSummary, error) {
	reports, err := s.reportRepo.GetReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveReports, err)
	}
	return reports, nil
}

// GetReport loads and decrypts a saved report.
func (s *TaxService) GetReport(ctx context.Context, id string) (model.TaxReport, error) {
	if s.sealer == nil {
		return model.TaxReport{}, apperrors.ErrEncryptionNotConfigured
	}

	stored, err := s.reportRepo.GetReport(ctx, id)
	if err != nil {
		return model.TaxReport{}, err
	}

	payload, err := s.sealer.Open(stored.Payload)
	if err != nil {
		return model.TaxReport{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToDecryptReport, err)
	}

	report := model.TaxReport{
		ID:         stored.ID,
		TaxYear:    stored.TaxYear,
		Label:      stored.Label,
		EventCount: stored.EventCount,
		CreatedAt:  stored.CreatedAt,
	}
	if err := json.Unmarshal(payload, &report.Result); err != nil {
		return model.TaxReport{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToDecryptReport, err)
	}
	return report, nil
}

// DeleteReport removes a saved report.
func (s *TaxService) DeleteReport(ctx context.Context, id string) error {
	return s.reportRepo.DeleteReport(ctx, id)
}

// marketFor returns the caller's tables, completed by the market data
// provider when either is missing.
func (s *TaxService) marketFor(ctx context.Context, req request.TaxRequest) (model.MarketData, error) {
	if req.Rates != nil && req.SymbolPrices != nil {
		return model.MarketData{Rates: req.Rates, SymbolPrices: req.SymbolPrices}, nil
	}

	market, err := s.marketData.MarketDataFor(ctx, req.Events)
	if err != nil {
		return model.MarketData{}, fmt.Errorf("%w: %w", apperrors.ErrMarketDataUnavailable, err)
	}
	if req.Rates != nil {
		market.Rates = req.Rates
	}
	if req.SymbolPrices != nil {
		market.SymbolPrices = req.SymbolPrices
	}
	return market, nil
}

func (s *TaxService) saveReport(ctx context.Context, req request.TaxRequest, result model.FrTaxes) (string, error) {
	if s.sealer == nil {
		return "", apperrors.ErrEncryptionNotConfigured
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrFailedToSaveReport, err)
	}
	sealed, err := s.sealer.Seal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrFailedToSaveReport, err)
	}

	taxYear := req.TaxYear
	if taxYear == 0 {
		taxYear = latestSaleYear(req.Events)
	}

	report := repository.StoredReport{
		TaxReportSummary: model.TaxReportSummary{
			ID:         uuid.New().String(),
			TaxYear:    taxYear,
			Label:      req.Label,
			EventCount: len(req.Events),
			CreatedAt:  s.now().UTC(),
		},
		Payload: sealed,
	}
	if err := s.reportRepo.InsertReport(ctx, report); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrFailedToSaveReport, err)
	}

	log.Info().Str("report_id", report.ID).Int("tax_year", taxYear).Msg("saved tax report")
	return report.ID, nil
}

func (s *TaxService) fillTotalsRates(ctx context.Context, events []model.TotalsEvent) []model.TotalsEvent {
	var start, end string
	for _, e := range events {
		if !e.RateAcquired.IsPresent() {
			start, end = widen(start, end, e.DateAcquired)
		}
		if !e.RateSold.IsPresent() {
			start, end = widen(start, end, e.DateSold)
		}
	}
	if start == "" {
		return events
	}

	rates, err := s.marketData.GetRates(ctx, start, end)
	if err != nil {
		log.Warn().Err(err).Str("start", start).Str("end", end).Msg("rates unavailable for totals")
		return events
	}

	filled := make([]model.TotalsEvent, len(events))
	for i, e := range events {
		if rate, ok := rates[e.DateAcquired]; ok && !e.RateAcquired.IsPresent() {
			e.RateAcquired = model.Some(rate)
		}
		if rate, ok := rates[e.DateSold]; ok && !e.RateSold.IsPresent() {
			e.RateSold = model.Some(rate)
		}
		filled[i] = e
	}
	return filled
}

func widen(start, end, date string) (string, string) {
	if start == "" || date < start {
		start = date
	}
	if end == "" || date > end {
		end = date
	}
	return start, end
}

func latestSaleYear(events []model.SaleEvent) int {
	year := 0
	for _, e := range events {
		t, err := time.Parse(model.DateLayout, e.DateSold)
		if err == nil && t.Year() > year {
			year = t.Year()
		}
	}
	return year
}
