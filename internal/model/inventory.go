package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem represents a stocked good in the warehouse
type InventoryItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU           *string         `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"type:varchar(100);index" json:"category"`
	Quantity      int             `gorm:"type:int;not null;default:0" json:"quantity"`
	MinStockLevel int             `gorm:"type:int;not null;default:10" json:"min_stock_level"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier      *Vendor         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Location      string          `gorm:"type:varchar(255)" json:"location"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the item sits at or below its reorder threshold
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}
