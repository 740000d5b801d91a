package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus constants. Status is derived from payments: paid when
// amount_paid >= amount_due, partial when anything has been paid, else unpaid.
const (
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
)

// Invoice represents a bill owed to a vendor, usually generated from a
// completed purchase order. POID carries a unique index so the storage
// layer rejects a second invoice for the same order even when two
// concurrent completion requests both pass the in-memory guard.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"invoice_number"`
	POID           *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"po_id"`
	PurchaseOrder  *PurchaseOrder  `gorm:"foreignKey:POID" json:"purchase_order,omitempty"`
	VendorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor         *Vendor         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	AmountDue      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount_due"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"amount_paid"`
	Status         string          `gorm:"type:varchar(20);not null;default:'unpaid';index" json:"status"`
	IssueDate      time.Time       `gorm:"autoCreateTime" json:"issue_date"`
	DueDate        *time.Time      `json:"due_date"`
	BillingAddress string          `gorm:"type:text" json:"billing_address"`
	Terms          string          `gorm:"type:varchar(100)" json:"terms"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	Payments       []Payment       `gorm:"foreignKey:InvoiceID" json:"payments"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AmountRemaining never goes below zero
func (i *Invoice) AmountRemaining() decimal.Decimal {
	remaining := i.AmountDue.Sub(i.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsOverdue reports whether the due date has passed on an unsettled invoice
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.DueDate != nil && i.DueDate.Before(now) && i.Status != InvoiceStatusPaid
}

// DeriveStatus returns the payment status implied by the current amounts
func (i *Invoice) DeriveStatus() string {
	switch {
	case i.AmountPaid.GreaterThanOrEqual(i.AmountDue):
		return InvoiceStatusPaid
	case i.AmountPaid.IsPositive():
		return InvoiceStatusPartial
	default:
		return InvoiceStatusUnpaid
	}
}

// InvoiceItem represents a priced unit within an Invoice
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Payment is an append-only record of money received against an invoice
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Method      string          `gorm:"type:varchar(50)" json:"method"`
	Reference   string          `gorm:"type:varchar(100)" json:"reference"`
	Notes       string          `gorm:"type:text" json:"notes"`
	RecordedBy  *uuid.UUID      `gorm:"type:uuid" json:"recorded_by"`
	Recorder    *User           `gorm:"foreignKey:RecordedBy" json:"recorder,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
