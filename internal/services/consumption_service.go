// internal/services/consumption_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/models"
)

// ConsumptionService reads the append-only consumption history. Events are
// written by StockService.Consume.
type ConsumptionService struct {
	db *gorm.DB
}

func NewConsumptionService(db *gorm.DB) *ConsumptionService {
	return &ConsumptionService{db: db}
}

// ListHistory returns the caller's events, most recent first. A nil status
// returns both consumed and wasted events.
func (s *ConsumptionService) ListHistory(ctx context.Context, principal models.Principal, status *models.ConsumptionStatus) ([]models.ConsumptionEvent, error) {
	query := s.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", principal.UserID)

	if status != nil {
		if !status.Valid() {
			return nil, newError(KindInvalidInput, "consumption.ListHistory", fmt.Sprintf("invalid status %q", *status))
		}
		query = query.Where("status = ?", *status)
	}

	var events []models.ConsumptionEvent
	if err := query.Order("consumed_at DESC, created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch consumption history: %w", err)
	}
	return events, nil
}
