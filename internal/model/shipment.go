package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentStatus constants
const (
	ShipmentStatusPending   = "pending"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusDelayed   = "delayed"
)

// Shipment tracks goods in motion for a purchase order
type Shipment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TrackingNumber     string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"tracking_number"`
	POID               *uuid.UUID        `gorm:"type:uuid;index" json:"po_id"`
	PurchaseOrder      *PurchaseOrder    `gorm:"foreignKey:POID" json:"purchase_order,omitempty"`
	VendorID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor             *Vendor           `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Status             string            `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	OriginAddress      string            `gorm:"type:text" json:"origin_address"`
	DestinationAddress string            `gorm:"type:text" json:"destination_address"`
	CurrentLocation    string            `gorm:"type:varchar(255)" json:"current_location"`
	CurrentLat         *float64          `gorm:"type:decimal(9,6)" json:"current_lat"`
	CurrentLng         *float64          `gorm:"type:decimal(9,6)" json:"current_lng"`
	EstimatedDelivery  *time.Time        `json:"estimated_delivery"`
	ActualDelivery     *time.Time        `json:"actual_delivery"`
	Carrier            string            `gorm:"type:varchar(100)" json:"carrier"`
	History            []ShipmentHistory `gorm:"foreignKey:ShipmentID" json:"history,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShipmentHistory is an append-only trail of status/location changes
type ShipmentHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"shipment_id"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	Location   string    `gorm:"type:varchar(255)" json:"location"`
	Lat        *float64  `gorm:"type:decimal(9,6)" json:"lat"`
	Lng        *float64  `gorm:"type:decimal(9,6)" json:"lng"`
	Notes      string    `gorm:"type:text" json:"notes"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (h *ShipmentHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
