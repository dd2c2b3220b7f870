// internal/models/common.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unspecified replaces product attributes the external catalog left empty.
const Unspecified = "unspecified"

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key in Go so the schema does not depend on
// a database-side uuid generator.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type ConsumptionStatus string

const (
	ConsumptionStatusConsumed ConsumptionStatus = "consumed"
	ConsumptionStatusWasted   ConsumptionStatus = "wasted"
)

func (s ConsumptionStatus) Valid() bool {
	return s == ConsumptionStatusConsumed || s == ConsumptionStatusWasted
}

type NutriScore string

const (
	NutriScoreA NutriScore = "a"
	NutriScoreB NutriScore = "b"
	NutriScoreC NutriScore = "c"
	NutriScoreD NutriScore = "d"
	NutriScoreE NutriScore = "e"
)

// ParseNutriScore normalizes a grade from the external catalog. Anything that
// is not a-e ("unknown", "not-applicable", empty) is reported as absent.
func ParseNutriScore(grade string) *NutriScore {
	switch g := NutriScore(strings.ToLower(strings.TrimSpace(grade))); g {
	case NutriScoreA, NutriScoreB, NutriScoreC, NutriScoreD, NutriScoreE:
		return &g
	}
	return nil
}
