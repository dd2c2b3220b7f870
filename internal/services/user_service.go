// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/ustock-backend/internal/database"
	"github.com/javajoker/ustock-backend/internal/models"
)

type UserService struct {
	db *gorm.DB
}

type CreateFamilyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetProfile(ctx context.Context, principal models.Principal) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Family").First(&user, "id = ?", principal.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "users.GetProfile", "user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// CreateFamily creates a family and moves the caller into it. Stock entries
// the caller adds afterwards are tagged with the new family.
func (s *UserService) CreateFamily(ctx context.Context, principal models.Principal, name string) (*models.Family, error) {
	const op = "users.CreateFamily"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(KindInvalidInput, op, "family name is required")
	}

	family := &models.Family{Name: name}
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Create(family).Error; err != nil {
			return fmt.Errorf("failed to create family: %w", err)
		}

		result := tx.Model(&models.User{}).
			Where("id = ?", principal.UserID).
			UpdateColumn("family_id", family.ID)
		if result.Error != nil {
			return fmt.Errorf("failed to join family: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return newError(KindNotFound, op, "user not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}

// DeleteAccount purges the caller's consumption events, stock entries and user
// row in one transaction. Either all of them are gone afterwards or none.
func (s *UserService) DeleteAccount(ctx context.Context, principal models.Principal) error {
	const op = "users.DeleteAccount"

	var events, stocks int64
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").
			First(&user, "id = ?", principal.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, op, "user not found")
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		result := tx.Where("user_id = ?", principal.UserID).Delete(&models.ConsumptionEvent{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete consumption history: %w", result.Error)
		}
		events = result.RowsAffected

		result = tx.Where("user_id = ?", principal.UserID).Delete(&models.StockEntry{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete stock: %w", result.Error)
		}
		stocks = result.RowsAffected

		if err := tx.Delete(&models.User{}, "id = ?", principal.UserID).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrRollbackFailed) {
			logrus.WithError(err).WithField("user_id", principal.UserID).
				Error("Account purge could not be rolled back")
			return wrapError(KindIntegrityFailure, op, "account purge left an unknown state", err)
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":            principal.UserID,
		"consumption_events": events,
		"stock_entries":      stocks,
	}).Info("Account deleted")
	return nil
}
