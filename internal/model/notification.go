package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType constants
const (
	NotificationTypeInfo    = "info"
	NotificationTypeAlert   = "alert"
	NotificationTypeWarning = "warning"
)

// Notification is an append-only observational record. A nil UserID means
// the notification is broadcast to everybody; it never mutates business
// state and the only writable field after creation is the read flag.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Type      string     `gorm:"type:varchar(20);not null" json:"type"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Read      bool       `gorm:"default:false" json:"read"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
