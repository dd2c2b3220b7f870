// internal/services/stats_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/models"
)

// Window aggregates consumption events over a time range. Counts are sums of
// event quantities, not numbers of events.
type Window struct {
	ConsumedCount    int64   `json:"consumed_count"`
	WastedCount      int64   `json:"wasted_count"`
	TotalCount       int64   `json:"total_count"`
	WasteRatePercent float64 `json:"waste_rate_percent"`
}

type Stats struct {
	AllTime      Window `json:"all_time"`
	CurrentMonth Window `json:"current_month"`
}

// StatsService computes consumption statistics on every call. Nothing is
// cached, so history size bounds the cost of a call.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

type statusTotal struct {
	Status models.ConsumptionStatus
	Total  int64
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// Stats returns the all-time and current calendar month windows. The month is
// the server clock's month, not a rolling 30 days.
func (s *StatsService) Stats(ctx context.Context, principal models.Principal) (*Stats, error) {
	allTime, err := s.window(ctx, principal, nil, nil)
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(s.now())
	month, err := s.window(ctx, principal, &start, &end)
	if err != nil {
		return nil, err
	}

	return &Stats{AllTime: allTime, CurrentMonth: month}, nil
}

func (s *StatsService) window(ctx context.Context, principal models.Principal, from, to *time.Time) (Window, error) {
	query := s.db.WithContext(ctx).Model(&models.ConsumptionEvent{}).
		Select("status, COALESCE(SUM(quantity), 0) AS total").
		Where("user_id = ?", principal.UserID)
	if from != nil {
		query = query.Where("consumed_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("consumed_at < ?", *to)
	}

	var totals []statusTotal
	if err := query.Group("status").Scan(&totals).Error; err != nil {
		return Window{}, fmt.Errorf("failed to aggregate consumption: %w", err)
	}

	var w Window
	for _, t := range totals {
		switch t.Status {
		case models.ConsumptionStatusConsumed:
			w.ConsumedCount = t.Total
		case models.ConsumptionStatusWasted:
			w.WastedCount = t.Total
		}
	}
	w.TotalCount = w.ConsumedCount + w.WastedCount
	w.WasteRatePercent = wasteRate(w.WastedCount, w.TotalCount)
	return w, nil
}

// wasteRate is wasted/total as a percentage rounded to two decimals, and 0
// for an empty window.
func wasteRate(wasted, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(wasted)/float64(total)*100*100) / 100
}

// monthBounds returns [first day of now's month, first day of the next month)
// in UTC, the zone consumption timestamps are stored in.
func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}
