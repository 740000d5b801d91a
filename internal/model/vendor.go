package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorStatus constants
const (
	VendorStatusActive   = "active"
	VendorStatusInactive = "inactive"
)

// Vendor represents a supplier the company orders goods from.
// UserID links the vendor to its portal account explicitly instead of
// re-deriving the relation from a matching login email on every request.
type Vendor struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	PaymentTerms  string         `gorm:"type:varchar(100)" json:"payment_terms"` // free text, e.g. "Net 45"
	Rating        float64        `gorm:"type:decimal(3,1);default:0" json:"rating"`
	Status        string         `gorm:"type:varchar(20);default:'active'" json:"status"`
	UserID        *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
