package repository

import (
	"context"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryListFilter struct {
	Category string
	LowStock bool
	Search   string
	Page     int
	Limit    int
}

type InventoryRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	Update(ctx context.Context, item *model.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	List(ctx context.Context, filter InventoryListFilter) ([]model.InventoryItem, int64, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *inventoryRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.InventoryItem{}).Error
}

func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	db := GetDB(ctx, r.db)
	// sqlite has no row locks; its single-writer model covers us there
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) FindBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) List(ctx context.Context, filter InventoryListFilter) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	query := GetDB(ctx, r.db).Model(&model.InventoryItem{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		query = query.Where("quantity <= min_stock_level")
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Supplier").Order("updated_at desc").
		Offset(offset).Limit(filter.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *inventoryRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).
		Where("id = ?", id).Update("quantity", quantity).Error
}
