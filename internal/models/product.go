// internal/models/product.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Barcode        string              `json:"barcode" gorm:"uniqueIndex;size:50;not null"`
	ProductName    string              `json:"product_name" gorm:"size:255;not null"`
	Brand          string              `json:"brand" gorm:"size:100"`
	ContentSize    string              `json:"content_size" gorm:"size:50"`
	Nutriscore     *NutriScore         `json:"nutriscore" gorm:"type:varchar(1)"`
	ImageURL       string              `json:"image_url" gorm:"size:512"`
	Price          decimal.NullDecimal `json:"price" gorm:"type:decimal(10,2)"`
	PriceUpdatedAt *time.Time          `json:"price_updated_at,omitempty"`
}

// ProductSummary is a search hit from the external catalog. It is never
// persisted.
type ProductSummary struct {
	Barcode     string `json:"barcode"`
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	ContentSize string `json:"content_size"`
	Nutriscore  string `json:"nutriscore"`
	ImageURL    string `json:"image_url"`
}
