package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAPIKey is the referent of CalculatorInputs.APIKeyID. The calculator
// only stores the reference; credentials themselves live elsewhere.
type UserAPIKey struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Label     string    `gorm:"size:120" json:"label"`
	Exchange  string    `gorm:"size:60" json:"exchange"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserAPIKey) TableName() string {
	return "user_api_keys"
}

func (k *UserAPIKey) BeforeCreate(_ *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
