package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ban struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Reason    string     `gorm:"type:text;not null" json:"reason"`
	CreatedBy string     `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	LiftedAt  *time.Time `json:"lifted_at,omitempty"`
}

func (Ban) TableName() string {
	return "bans"
}

func (b *Ban) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// ActiveAt reports whether the ban is in force at t.
func (b *Ban) ActiveAt(t time.Time) bool {
	if b.LiftedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(t)
}
