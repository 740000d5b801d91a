package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderStatus constants. Transitions are monotonic triggers, not
// strict edges: any status may be re-requested, but only the first
// transition into completed fires inventory and billing side effects.
const (
	POStatusPending   = "pending"
	POStatusCompleted = "completed"
	POStatusCancelled = "cancelled"
)

// PurchaseOrder represents a vendor-facing request to supply goods
type PurchaseOrder struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	PONumber             string              `gorm:"type:varchar(100);uniqueIndex;not null" json:"po_number"`
	VendorID             uuid.UUID           `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor               *Vendor             `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	CreatedBy            uuid.UUID           `gorm:"type:uuid;not null" json:"created_by"`
	Creator              *User               `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Status               string              `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TotalAmount          decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	OrderDate            time.Time           `gorm:"autoCreateTime" json:"order_date"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date"`
	Notes                string              `gorm:"type:text" json:"notes"`
	Items                []PurchaseOrderItem `gorm:"foreignKey:POID" json:"items"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func (p *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchaseOrderItem represents a line item within a PurchaseOrder
type PurchaseOrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	POID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"po_id"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item      *InventoryItem  `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
}

func (p *PurchaseOrderItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
