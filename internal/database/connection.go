// internal/database/connection.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/models"
)

// ErrRollbackFailed is joined to the original error when a transaction could
// not be rolled back, leaving its effects unknown.
var ErrRollbackFailed = errors.New("transaction rollback failed")

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(GormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return db, nil
}

// GormLogLevel maps the DB_LOG_LEVEL setting onto gorm's logger levels.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Debug("Running database migrations...")

	err := db.AutoMigrate(
		&models.Family{},
		&models.User{},
		&models.Product{},
		&models.StockEntry{},
		&models.ConsumptionEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Debug("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Stock indexes
		"CREATE INDEX IF NOT EXISTS idx_stocks_user_product ON stocks(user_id, product_id)",
		"CREATE INDEX IF NOT EXISTS idx_stocks_user_expiration ON stocks(user_id, expiration_date)",

		// Consumption indexes
		"CREATE INDEX IF NOT EXISTS idx_product_consumption_user_date ON product_consumption(user_id, consumed_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_product_consumption_user_status ON product_consumption(user_id, status)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// WithTransaction runs fn inside a transaction bound to ctx. The transaction
// is rolled back when fn returns an error or panics, and committed otherwise.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !rolledBackAlready(rbErr) {
			return errors.Join(err, ErrRollbackFailed, rbErr)
		}
		return err
	}

	return tx.Commit().Error
}

// rolledBackAlready reports rollback errors that mean the driver already
// aborted the transaction, e.g. after its context was cancelled.
func rolledBackAlready(err error) bool {
	return errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
