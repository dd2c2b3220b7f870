// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/ustock-backend/internal/database"
	"github.com/javajoker/ustock-backend/internal/models"
)

// New returns a migrated in-memory SQLite database. The pool is limited to a
// single connection: every connection to ":memory:" would otherwise see its
// own empty database. That also serializes concurrent writers, standing in
// for postgres row locks.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// ErrRollbackBroken is what rollbacks report on a store opened by
// WithBrokenRollback.
var ErrRollbackBroken = errors.New("connection lost during rollback")

type brokenRollbackPool struct {
	*sql.DB
}

func (p brokenRollbackPool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	tx, err := p.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &brokenRollbackTx{Tx: tx}, nil
}

type brokenRollbackTx struct {
	*sql.Tx
}

// Rollback really rolls back, then reports a failure so callers cannot know
// the outcome.
func (tx *brokenRollbackTx) Rollback() error {
	tx.Tx.Rollback()
	return ErrRollbackBroken
}

// WithBrokenRollback returns a handle on the same store as db whose
// transaction rollbacks always report ErrRollbackBroken.
func WithBrokenRollback(t testing.TB, db *gorm.DB) *gorm.DB {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}

	broken, err := gorm.Open(sqlite.Dialector{Conn: brokenRollbackPool{DB: sqlDB}}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open broken store: %v", err)
	}
	return broken
}

// CreateUser inserts a user with a known password ("Password123!").
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@example.com",
	}
	if err := user.SetPassword("Password123!"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// Principal returns the principal for a stored user.
func Principal(user *models.User) models.Principal {
	return models.Principal{UserID: user.ID, Username: user.Username, Email: user.Email}
}

// CreateProduct inserts a catalog product with the given barcode.
func CreateProduct(t testing.TB, db *gorm.DB, barcode string) *models.Product {
	t.Helper()

	product := &models.Product{
		Barcode:     barcode,
		ProductName: "Product " + barcode,
		Brand:       "Brand",
		ContentSize: "500 g",
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("2.50")),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// Count returns the number of rows of model matching the optional condition.
func Count(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// NewID is a shortcut used by table tests that need an unknown id.
func NewID() uuid.UUID {
	return uuid.New()
}
