package repository

import (
	"context"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceListFilter struct {
	Status      string
	VendorID    *uuid.UUID
	OverdueOnly bool
	Page        int
	Limit       int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	CreateItem(ctx context.Context, item *model.InvoiceItem) error
	Update(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByPOID(ctx context.Context, poID uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	CreatePayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) CreateItem(ctx context.Context, item *model.InvoiceItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	db := GetDB(ctx, r.db)
	// sqlite has no row locks; its single-writer model covers us there
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithDetails(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date desc")
		}).
		Preload("Payments.Recorder").
		Preload("Vendor").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByPOID is the idempotency lookup: at most one invoice references a PO.
func (r *invoiceRepository) FindByPOID(ctx context.Context, poID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").Where("po_id = ?", poID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Invoice{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.OverdueOnly {
		query = query.Where("status != ? AND due_date IS NOT NULL AND due_date < CURRENT_TIMESTAMP", model.InvoiceStatusPaid)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Vendor").Order("issue_date desc").
		Offset(offset).Limit(filter.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Preload("Recorder").
		Where("invoice_id = ?", invoiceID).
		Order("payment_date desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
