package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/ecb"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/repository"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/yahoo"
)

const (
	currencyEUR = "EUR"
	currencyUSD = "USD"

	// marketLookbackDays is how far before a requested date a rate or price
	// may come from. It matches the enrichment price lookback.
	marketLookbackDays = 10
)

// MarketDataService assembles the exchange rate and symbol price tables read
// by the tax engine. Tables are served from SQLite and completed from the ECB
// and Yahoo Finance when dates are missing.
type MarketDataService struct {
	rateRepo    *repository.ExchangeRateRepository
	priceRepo   *repository.SymbolPriceRepository
	rateClient  ecb.RateFetcher
	yahooClient yahoo.Client
	tables      *cache.Cache
	inflight    singleflight.Group
	concurrency int
	now         func() time.Time
}

// NewMarketDataService creates a new MarketDataService. Assembled tables are
// kept in memory for tableTTL; concurrency bounds parallel upstream calls.
func NewMarketDataService(
	rateRepo *repository.ExchangeRateRepository,
	priceRepo *repository.SymbolPriceRepository,
	rateClient ecb.RateFetcher,
	yahooClient yahoo.Client,
	tableTTL time.Duration,
	concurrency int,
) *MarketDataService {
	return &MarketDataService{
		rateRepo:    rateRepo,
		priceRepo:   priceRepo,
		rateClient:  rateClient,
		yahooClient: yahooClient,
		tables:      cache.New(tableTTL, 2*tableTTL),
		concurrency: max(concurrency, 1),
		now:         time.Now,
	}
}

// WithClock returns the service with a different time source.
func (s *MarketDataService) WithClock(now func() time.Time) *MarketDataService {
	s.now = now
	return s
}

// MarketDataFor returns the tables needed to tax events. Rates cover every
// acquisition and sale date, prices cover each symbol from the lookback
// window before its first acquisition.
//
// A rate failure is returned as an error. A symbol that cannot be priced is
// logged and left out: the engine then falls back to fair market value or
// reports the affected sales as excluded.
func (s *MarketDataService) MarketDataFor(ctx context.Context, events []model.SaleEvent) (model.MarketData, error) {
	market := model.MarketData{
		Rates:        model.RateTable{},
		SymbolPrices: map[string]model.SymbolPriceTable{},
	}
	if len(events) == 0 {
		return market, nil
	}

	start, end, err := eventRange(events)
	if err != nil {
		return market, err
	}

	symbolRanges := map[string][2]string{}
	for _, e := range events {
		r, ok := symbolRanges[e.Symbol]
		if !ok || e.DateAcquired < r[0] {
			r[0] = e.DateAcquired
		}
		if !ok || e.DateAcquired > r[1] {
			r[1] = e.DateAcquired
		}
		symbolRanges[e.Symbol] = r
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	g.Go(func() error {
		rates, err := s.GetRates(gctx, start, end)
		if err != nil {
			return err
		}
		market.Rates = rates
		return nil
	})

	prices := make([]model.SymbolPriceTable, len(symbolRanges))
	symbols := make([]string, 0, len(symbolRanges))
	for symbol := range symbolRanges {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		r := symbolRanges[symbol]
		g.Go(func() error {
			from, err := shiftDate(r[0], -marketLookbackDays)
			if err != nil {
				return err
			}
			table, err := s.GetSymbolPrices(gctx, symbol, from, r[1])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("symbol", symbol).Msg("symbol prices unavailable")
				return nil
			}
			prices[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return market, err
	}

	for i, symbol := range symbols {
		if prices[i] != nil {
			market.SymbolPrices[symbol] = prices[i]
		}
	}
	return market, nil
}

// GetRates returns a rate for every calendar day from startDate to endDate,
// up to yesterday. Days without an ECB publication carry the most recent
// earlier rate published within marketLookbackDays. Tables are memoised per
// range so holidays do not trigger a new ECB request each time.
func (s *MarketDataService) GetRates(ctx context.Context, startDate, endDate string) (model.RateTable, error) {
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	end = s.clampToYesterday(end)
	if end.Before(start) {
		return model.RateTable{}, nil
	}
	key := fmt.Sprintf("%s/%s|%s|%s", currencyEUR, currencyUSD, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if cached, ok := s.tables.Get(key); ok {
		return cached.(model.RateTable), nil
	}
	lookbackStart := start.AddDate(0, 0, -marketLookbackDays)

	stored, err := s.storedRates(ctx, lookbackStart, end)
	if err != nil {
		return nil, err
	}

	if missing := missingWeekdays(stored, start, end); len(missing) > 0 {
		log.Debug().
			Str("start", startDate).
			Str("end", endDate).
			Int("missing", len(missing)).
			Msg("fetching exchange rates from ecb")

		if _, err := s.refreshRates(ctx, lookbackStart, end); err != nil {
			return nil, err
		}
		if stored, err = s.storedRates(ctx, lookbackStart, end); err != nil {
			return nil, err
		}
	}

	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrExchangeRateNotFound, startDate, endDate)
	}
	filled := fillRates(stored, start, end)
	s.tables.SetDefault(key, filled)
	return filled, nil
}

// RefreshRates fetches the last days of ECB rates up to today and stores them.
func (s *MarketDataService) RefreshRates(ctx context.Context, days int) (model.RateRefreshResponse, error) {
	today := truncateDay(s.now())
	start := today.AddDate(0, 0, -days)

	added, err := s.refreshRates(ctx, start, today)
	if err != nil {
		return model.RateRefreshResponse{
			Status:    "error",
			Message:   err.Error(),
			StartDate: start.Format(model.DateLayout),
			EndDate:   today.Format(model.DateLayout),
		}, err
	}
	if added > 0 {
		// filled tables may carry a forward-filled rate for a day just published
		s.tables.Flush()
	}

	return model.RateRefreshResponse{
		Status:     "success",
		Message:    fmt.Sprintf("stored %d exchange rates", added),
		StartDate:  start.Format(model.DateLayout),
		EndDate:    today.Format(model.DateLayout),
		RatesAdded: added,
	}, nil
}

func (s *MarketDataService) refreshRates(ctx context.Context, start, end time.Time) (int, error) {
	fetched, err := s.rateClient.FetchUSDRates(ctx, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrMarketDataUnavailable, err)
	}

	rates := make([]model.ExchangeRate, 0, len(fetched))
	for _, date := range ecb.Dates(fetched) {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return 0, fmt.Errorf("invalid ecb date %q: %w", date, err)
		}
		rates = append(rates, model.ExchangeRate{
			FromCurrency: currencyEUR,
			ToCurrency:   currencyUSD,
			Rate:         fetched[date],
			Date:         d,
		})
	}

	if err := s.rateRepo.UpsertRates(ctx, rates); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrFailedToUpdateExchangeRate, err)
	}
	return len(rates), nil
}

func (s *MarketDataService) storedRates(ctx context.Context, start, end time.Time) (model.RateTable, error) {
	rows, err := s.rateRepo.GetRates(ctx, currencyEUR, currencyUSD, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveExchangeRate, err)
	}
	table := make(model.RateTable, len(rows))
	for _, r := range rows {
		table[r.Date.Format(model.DateLayout)] = r.Rate
	}
	return table, nil
}

// GetSymbolPrices returns the daily prices of symbol between startDate and
// endDate. Tables are memoised per range, and concurrent requests for the
// same range share one lookup.
func (s *MarketDataService) GetSymbolPrices(ctx context.Context, symbol, startDate, endDate string) (model.SymbolPriceTable, error) {
	if symbol == "" {
		return nil, apperrors.ErrInvalidSymbol
	}
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	end = s.clampToYesterday(end)
	if end.Before(start) {
		return model.SymbolPriceTable{}, nil
	}

	key := fmt.Sprintf("%s|%s|%s", symbol, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if cached, ok := s.tables.Get(key); ok {
		return cached.(model.SymbolPriceTable), nil
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		table, err := s.loadSymbolPrices(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		s.tables.SetDefault(key, table)
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.SymbolPriceTable), nil
}

func (s *MarketDataService) loadSymbolPrices(ctx context.Context, symbol string, start, end time.Time) (model.SymbolPriceTable, error) {
	stored, err := s.storedPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	missing := missingWeekdays(stored, start, end)
	if len(missing) == 0 {
		return stored, nil
	}

	log.Debug().
		Str("symbol", symbol).
		Int("missing", len(missing)).
		Msg("fetching symbol prices from yahoo")

	raw, err := s.yahooClient.QueryYahooSymbolByDateRange(ctx, symbol, start, end)
	if err != nil {
		if len(stored) > 0 && ctx.Err() == nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("using stored symbol prices only")
			return stored, nil
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSymbolPrice, err)
	}
	chart, err := s.yahooClient.ParseChart(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSymbolNotFound, symbol, err)
	}

	newPrices := make([]model.SymbolPrice, 0, len(missing))
	for _, ind := range chart.Indicators {
		date := ind.Date.Format(model.DateLayout)
		if !missing[date] {
			continue
		}
		newPrices = append(newPrices, model.SymbolPrice{
			Symbol:  symbol,
			Date:    ind.Date,
			Opening: ind.PriceOpen,
			Closing: ind.PriceClose,
		})
		stored[date] = model.DailyPrice{Opening: ind.PriceOpen, Closing: ind.PriceClose}
	}

	if len(newPrices) > 0 {
		if err := s.priceRepo.UpsertPrices(ctx, newPrices); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

func (s *MarketDataService) storedPrices(ctx context.Context, symbol string, start, end time.Time) (model.SymbolPriceTable, error) {
	rows, err := s.priceRepo.GetPrices(ctx, symbol, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSymbolPrice, err)
	}
	table := make(model.SymbolPriceTable, len(rows))
	for _, p := range rows {
		table[p.Date.Format(model.DateLayout)] = model.DailyPrice{Opening: p.Opening, Closing: p.Closing}
	}
	return table, nil
}

// clampToYesterday limits end to the last day whose data is final.
func (s *MarketDataService) clampToYesterday(end time.Time) time.Time {
	yesterday := truncateDay(s.now()).AddDate(0, 0, -1)
	if end.After(yesterday) {
		return yesterday
	}
	return end
}

// missingWeekdays lists the weekdays between start and end absent from
// table. Weekends never have market data. Holidays do show up as missing and
// cause one upstream request per cold cache.
func missingWeekdays[V any](table map[string]V, start, end time.Time) map[string]bool {
	missing := make(map[string]bool)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		key := d.Format(model.DateLayout)
		if _, ok := table[key]; !ok {
			missing[key] = true
		}
	}
	return missing
}

// fillRates returns a rate for each day of [start, end], taking the closest
// earlier published rate within marketLookbackDays when a day has none.
func fillRates(published model.RateTable, start, end time.Time) model.RateTable {
	filled := model.RateTable{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for back := 0; back <= marketLookbackDays; back++ {
			if rate, ok := published[d.AddDate(0, 0, -back).Format(model.DateLayout)]; ok {
				filled[d.Format(model.DateLayout)] = rate
				break
			}
		}
	}
	return filled
}

// eventRange returns the first acquisition and last sale date of events.
func eventRange(events []model.SaleEvent) (string, string, error) {
	start, end := events[0].DateAcquired, events[0].DateSold
	for _, e := range events {
		start = min(start, e.DateAcquired, e.DateSold)
		end = max(end, e.DateAcquired, e.DateSold)
	}
	if _, _, err := parseRange(start, end); err != nil {
		return "", "", err
	}
	return start, end, nil
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q", apperrors.ErrInvalidDate, startDate)
	}
	end, err := time.Parse(model.DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q", apperrors.ErrInvalidDate, endDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}
	return start, end, nil
}

func shiftDate(date string, days int) (string, error) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "", errors.Join(apperrors.ErrInvalidDate, err)
	}
	return d.AddDate(0, 0, days).Format(model.DateLayout), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
