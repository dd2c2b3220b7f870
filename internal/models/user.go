// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	FirstName    string     `json:"first_name" gorm:"size:50;not null"`
	LastName     string     `json:"last_name" gorm:"size:50;not null"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:100;not null"`
	BirthDate    *time.Time `json:"birth_date,omitempty" gorm:"type:date"`
	Gender       string     `json:"gender,omitempty" gorm:"size:10"`
	FamilyID     *uuid.UUID `json:"family_id,omitempty" gorm:"type:uuid;index"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`

	// Relationships
	Family *Family `json:"family,omitempty" gorm:"foreignKey:FamilyID;constraint:OnDelete:SET NULL"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

type Family struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null"`
}

// Principal is the authenticated identity a request acts for. It is handed
// explicitly to every ledger operation.
type Principal struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
