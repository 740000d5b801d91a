package repository

import (
	"context"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentListFilter struct {
	Status   string
	VendorID *uuid.UUID
	Page     int
	Limit    int
}

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	Update(ctx context.Context, shipment *model.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	List(ctx context.Context, filter ShipmentListFilter) ([]model.Shipment, int64, error)
	AppendHistory(ctx context.Context, entry *model.ShipmentHistory) error
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	return GetDB(ctx, r.db).Create(shipment).Error
}

func (r *shipmentRepository) Update(ctx context.Context, shipment *model.Shipment) error {
	return GetDB(ctx, r.db).Save(shipment).Error
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp desc")
		}).
		Preload("Vendor").
		Preload("PurchaseOrder").
		First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) List(ctx context.Context, filter ShipmentListFilter) ([]model.Shipment, int64, error) {
	var shipments []model.Shipment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Shipment{})
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
	if err := query.Preload("Vendor").Preload("PurchaseOrder").
		Order("created_at desc").Offset(offset).Limit(filter.Limit).
		Find(&shipments).Error; err != nil {
		return nil, 0, err
	}

	return shipments, total, nil
}

func (r *shipmentRepository) AppendHistory(ctx context.Context, entry *model.ShipmentHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
