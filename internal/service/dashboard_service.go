package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 366
)

type DashboardService interface {
	MovementTrend(ctx context.Context, days int) ([]repository.DailyMovement, error)
}

type dashboardService struct {
	movementRepo repository.MovementRepository
	now          func() time.Time
}

func NewDashboardService(mRepo repository.MovementRepository) DashboardService {
	return &dashboardService{movementRepo: mRepo, now: time.Now}
}

// MovementTrend returns one row per day for the last days days, oldest first.
// Days without movements are filled with zeros.
func (s *dashboardService) MovementTrend(ctx context.Context, days int) ([]repository.DailyMovement, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		return nil, apperror.Validation("days must be at most %d", maxTrendDays)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	rows, err := s.movementRepo.DailyTotals(ctx, start, now)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	byDate := make(map[string]repository.DailyMovement, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	trend := make([]repository.DailyMovement, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if r, ok := byDate[key]; ok {
			trend = append(trend, r)
			continue
		}
		trend = append(trend, repository.DailyMovement{Date: key, Inbound: decimal.Zero, Outbound: decimal.Zero})
	}
	return trend, nil
}
