package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/service"
)

type recordingRefresher struct {
	days []int
	err  error
}

func (r *recordingRefresher) RefreshRates(ctx context.Context, days int) (model.RateRefreshResponse, error) {
	r.days = append(r.days, days)
	if _, ok := ctx.Deadline(); !ok {
		return model.RateRefreshResponse{}, errors.New("missing deadline")
	}
	return model.RateRefreshResponse{Status: "success", RatesAdded: 1}, r.err
}

func TestNewScheduler(t *testing.T) {
	t.Run("rejects invalid schedules", func(t *testing.T) {
		_, err := service.NewScheduler(&recordingRefresher{}, "every day", 7, time.Minute)
		assert.Error(t, err)
	})

	t.Run("starts and stops", func(t *testing.T) {
		s, err := service.NewScheduler(&recordingRefresher{}, "30 17 * * 1-5", 7, time.Minute)
		require.NoError(t, err)

		s.Start()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
}

func TestScheduler_RunRateRefresh(t *testing.T) {
	t.Run("refreshes the configured window", func(t *testing.T) {
		refresher := &recordingRefresher{}
		s, err := service.NewScheduler(refresher, "@daily", 5, time.Minute)
		require.NoError(t, err)

		s.RunRateRefresh()
		assert.Equal(t, []int{5}, refresher.days)
	})

	t.Run("survives refresh failures", func(t *testing.T) {
		refresher := &recordingRefresher{err: errors.New("ecb down")}
		s, err := service.NewScheduler(refresher, "@daily", 5, time.Minute)
		require.NoError(t, err)

		s.RunRateRefresh()
		s.RunRateRefresh()
		assert.Equal(t, []int{5, 5}, refresher.days)
	})
}
