package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeSale         NotificationType = "sale"
	NotificationTypeBid          NotificationType = "bid"
	NotificationTypeOutbid       NotificationType = "outbid"
	NotificationTypeAuctionEnded NotificationType = "auction_ended"
	NotificationTypeSubscription NotificationType = "subscription"
	NotificationTypeMessage      NotificationType = "message"
	NotificationTypeBan          NotificationType = "ban"
	NotificationTypeSystem       NotificationType = "system"
)

// Notification is a row of the structured notification store. A row is active while
// ClearedAt is nil.
type Notification struct {
	ID        string            `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType  `gorm:"type:varchar(32);not null;default:'system'" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Data      datatypes.JSONMap `gorm:"type:jsonb" json:"data,omitempty"`
	CreatedAt time.Time         `gorm:"not null;index" json:"created_at"`
	ClearedAt *time.Time        `gorm:"index" json:"cleared_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (n *Notification) IsCleared() bool {
	return n.ClearedAt != nil
}
