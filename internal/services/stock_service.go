// internal/services/stock_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/database"
	"github.com/javajoker/ustock-backend/internal/models"
)

// LotPolicy decides whether AddStock folds units into an existing entry.
type LotPolicy string

const (
	// LotPolicyMerge folds every addition into the caller's existing entry for
	// the product and keeps that entry's expiration date.
	LotPolicyMerge LotPolicy = config.LotPolicyMerge
	// LotPolicySeparateLots only merges into an entry with the same
	// expiration date and opens a new lot otherwise.
	LotPolicySeparateLots LotPolicy = config.LotPolicySeparateLots
)

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// StockService is the stock ledger: on-hand quantities per user and product,
// and the consumption path that turns stock into history events.
type StockService struct {
	db        *gorm.DB
	lotPolicy LotPolicy
	now       func() time.Time
}

type AddStockRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Quantity       *int      `json:"quantity,omitempty" validate:"omitempty,min=1"`
	ExpirationDate *string   `json:"expiration_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ConsumeRequest struct {
	StockID  uuid.UUID                `json:"stock_id" validate:"required"`
	Quantity int                      `json:"quantity" validate:"required,min=1"`
	Status   models.ConsumptionStatus `json:"status" validate:"required,oneof=consumed wasted"`
}

func NewStockService(db *gorm.DB, lotPolicy LotPolicy) *StockService {
	if lotPolicy == "" {
		lotPolicy = LotPolicyMerge
	}
	return &StockService{
		db:        db,
		lotPolicy: lotPolicy,
		now:       time.Now,
	}
}

// AddStock puts quantity units of a product into the caller's stock.
func (s *StockService) AddStock(ctx context.Context, principal models.Principal, productID uuid.UUID, quantity int, expirationDate *time.Time) (*models.StockEntry, error) {
	const op = "stock.AddStock"

	if quantity < 1 {
		return nil, newError(KindInvalidQuantity, op, "quantity must be at least 1")
	}
	expiry := dateOnly(expirationDate)

	var entryID uuid.UUID
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		// Locking the owner serializes additions per user, so two concurrent
		// first additions of a product cannot both insert a row.
		var owner models.User
		if err := tx.Clauses(lockForUpdate).Select("id", "family_id").
			First(&owner, "id = ?", principal.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, op, "user not found")
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, op, "product not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		query := tx.Clauses(lockForUpdate).
			Where("user_id = ? AND product_id = ?", principal.UserID, productID)
		if s.lotPolicy == LotPolicySeparateLots {
			if expiry == nil {
				query = query.Where("expiration_date IS NULL")
			} else {
				query = query.Where("expiration_date = ?", *expiry)
			}
		}

		var existing models.StockEntry
		err := query.Order("created_at ASC").First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			entryID = existing.ID

		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := models.StockEntry{
				UserID:         principal.UserID,
				FamilyID:       owner.FamilyID,
				ProductID:      productID,
				Quantity:       quantity,
				ExpirationDate: expiry,
			}
			if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create stock: %w", err)
			}
			entryID = entry.ID

		default:
			return fmt.Errorf("database error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getOwned(ctx, principal.UserID, entryID)
}

// ListStock returns the caller's entries with their products, soonest
// expiration first and undated entries last.
func (s *StockService) ListStock(ctx context.Context, principal models.Principal) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	err := s.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", principal.UserID).
		Order("expiration_date IS NULL, expiration_date ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock: %w", err)
	}
	return entries, nil
}

// ListExpiring returns entries expiring within the given number of days,
// including ones already past their date.
func (s *StockService) ListExpiring(ctx context.Context, principal models.Principal, withinDays int) ([]models.StockEntry, error) {
	if withinDays < 0 {
		return nil, newError(KindInvalidInput, "stock.ListExpiring", "days must not be negative")
	}

	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day()+withinDays, 0, 0, 0, 0, time.UTC)

	var entries []models.StockEntry
	err := s.db.WithContext(ctx).Preload("Product").
		Where("user_id = ? AND expiration_date IS NOT NULL AND expiration_date <= ?", principal.UserID, cutoff).
		Order("expiration_date ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expiring stock: %w", err)
	}
	return entries, nil
}

// RemoveStock deletes one of the caller's entries outright, without recording
// a consumption event.
func (s *StockService) RemoveStock(ctx context.Context, principal models.Principal, stockID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", stockID, principal.UserID).
		Delete(&models.StockEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(KindNotFound, "stock.RemoveStock", "stock entry not found")
	}
	return nil
}

// Consume takes quantity units out of a stock entry and records the event.
// The event insert, the decrement and the deletion of an emptied entry commit
// together or not at all.
func (s *StockService) Consume(ctx context.Context, principal models.Principal, stockID uuid.UUID, quantity int, status models.ConsumptionStatus) (*models.ConsumptionEvent, error) {
	const op = "stock.Consume"

	if quantity < 1 {
		return nil, newError(KindInvalidQuantity, op, "quantity must be at least 1")
	}
	if !status.Valid() {
		return nil, newError(KindInvalidInput, op, fmt.Sprintf("invalid status %q", status))
	}

	var event *models.ConsumptionEvent
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var entry models.StockEntry
		if err := tx.Clauses(lockForUpdate).
			Where("id = ? AND user_id = ?", stockID, principal.UserID).
			First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, op, "stock entry not found")
			}
			return fmt.Errorf("failed to load stock: %w", err)
		}

		if quantity > entry.Quantity {
			return newError(KindInvalidQuantity, op,
				fmt.Sprintf("requested %d but only %d in stock", quantity, entry.Quantity))
		}

		entryID := entry.ID
		event = &models.ConsumptionEvent{
			UserID:         principal.UserID,
			ProductID:      entry.ProductID,
			StockID:        &entryID,
			Quantity:       quantity,
			Status:         status,
			ExpirationDate: entry.ExpirationDate,
			ConsumedAt:     s.now().UTC(),
		}
		if err := tx.Omit(clause.Associations).Create(event).Error; err != nil {
			return fmt.Errorf("failed to record consumption: %w", err)
		}

		if entry.Quantity-quantity <= 0 {
			if err := tx.Delete(&models.StockEntry{}, "id = ?", entry.ID).Error; err != nil {
				return fmt.Errorf("failed to delete emptied stock: %w", err)
			}
			return nil
		}

		if err := tx.Model(&entry).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity)).Error; err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&event.Product, "id = ?", event.ProductID).Error; err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Warn("Failed to load product for consumption event")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  principal.UserID,
		"stock_id": stockID,
		"quantity": quantity,
		"status":   status,
	}).Debug("Stock consumed")

	return event, nil
}

func (s *StockService) getOwned(ctx context.Context, userID, stockID uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	if err := s.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND user_id = ?", stockID, userID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "stock.Get", "stock entry not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &entry, nil
}

// ParseDate parses an optional YYYY-MM-DD date.
func ParseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, wrapError(KindInvalidInput, "ParseDate", "date must be YYYY-MM-DD", err)
	}
	return &t, nil
}

// dateOnly drops the time of day, keeping the calendar date as UTC midnight.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
