package repository

import (
	"context"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseOrderListFilter struct {
	Status   string
	VendorID *uuid.UUID
	Page     int
	Limit    int
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	CreateItem(ctx context.Context, item *model.PurchaseOrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *purchaseOrderRepository) CreateItem(ctx context.Context, item *model.PurchaseOrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Item").
		Preload("Vendor").
		Preload("Creator").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) List(ctx context.Context, filter PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	query := GetDB(ctx, r.db).Model(&model.PurchaseOrder{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Items").Preload("Items.Item").Preload("Vendor").
		Order("order_date desc").Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus writes the status field only. The orchestrator relies on
// this being independent of any downstream fulfillment step.
func (r *purchaseOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).
		Where("id = ?", id).Update("status", status).Error
}

func (r *purchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("po_id = ?", id).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.PurchaseOrder{}).Error
}
