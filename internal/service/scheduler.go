package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
)

// RateRefresher refreshes the stored exchange rates.
type RateRefresher interface {
	RefreshRates(ctx context.Context, days int) (model.RateRefreshResponse, error)
}

// Scheduler runs the periodic exchange rate refresh.
type Scheduler struct {
	cron      *cron.Cron
	refresher RateRefresher
	days      int
	timeout   time.Duration
}

// NewScheduler registers the rate refresh job on schedule, a standard five field
// cron expression evaluated in UTC. Each run refreshes the last days days.
func NewScheduler(refresher RateRefresher, schedule string, days int, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		refresher: refresher,
		days:      days,
		timeout:   timeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunRateRefresh); err != nil {
		return nil, fmt.Errorf("invalid rate refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler stopped before running job finished")
	}
}

// RunRateRefresh refreshes the rates once. Failures are logged; the next run
// retries.
func (s *Scheduler) RunRateRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := s.refresher.RefreshRates(ctx, s.days)
	if err != nil {
		log.Error().Err(err).Msg("scheduled rate refresh failed")
		return
	}
	log.Info().
		Int("rates_added", resp.RatesAdded).
		Str("start", resp.StartDate).
		Str("end", resp.EndDate).
		Msg("scheduled rate refresh completed")
}
