// internal/models/stock.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockEntry is a quantity of one product held by one user. A row only exists
// while its quantity is at least one.
type StockEntry struct {
	BaseModel
	UserID         uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	FamilyID       *uuid.UUID `json:"family_id,omitempty" gorm:"type:uuid;index"`
	ProductID      uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity       int        `json:"quantity" gorm:"not null;check:chk_stocks_quantity,quantity >= 1"`
	ExpirationDate *time.Time `json:"expiration_date" gorm:"type:date"`

	// Relationships
	Product Product `json:"product" gorm:"foreignKey:ProductID"`
	User    *User   `json:"-" gorm:"foreignKey:UserID"`
}

func (StockEntry) TableName() string {
	return "stocks"
}

// ConsumptionEvent records that a user consumed or wasted some quantity. Rows
// are never updated; StockID may point at an entry that no longer exists.
type ConsumptionEvent struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID         `json:"product_id" gorm:"type:uuid;not null;index"`
	StockID        *uuid.UUID        `json:"stock_id,omitempty" gorm:"type:uuid"`
	Quantity       int               `json:"quantity" gorm:"not null;check:chk_product_consumption_quantity,quantity >= 1"`
	Status         ConsumptionStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	ExpirationDate *time.Time        `json:"expiration_date" gorm:"type:date"`
	ConsumedAt     time.Time         `json:"consumed_at" gorm:"not null"`
	CreatedAt      time.Time         `json:"created_at"`

	// Relationships
	Product Product `json:"product" gorm:"foreignKey:ProductID"`
	User    *User   `json:"-" gorm:"foreignKey:UserID"`
}

func (ConsumptionEvent) TableName() string {
	return "product_consumption"
}

func (e *ConsumptionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
