package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	ws "github.com/chainsense/backend/internal/websocket"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Adjustment directions
const (
	AdjustIncrement = "increment"
	AdjustDecrement = "decrement"
)

// AdjustmentEntry asks for one item's stock to move by a positive quantity
// in the given direction.
type AdjustmentEntry struct {
	ItemID    uuid.UUID `json:"item_id"`
	Direction string    `json:"direction"`
	Quantity  int       `json:"quantity"`
}

// AdjustmentResult reports what happened to one item. Delta is the applied
// change, which for decrements can be smaller in magnitude than requested
// because stock never goes below zero.
//
// The batch runs in a single transaction. When ApplyDelta also returns an
// error, the whole batch has been rolled back and any results accompanying
// the error are diagnostics of the attempt, not applied state.
type AdjustmentResult struct {
	ItemID      uuid.UUID `json:"item_id"`
	ItemName    string    `json:"item_name"`
	Delta       int       `json:"delta"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
}

// DTOs
type CreateItemRequest struct {
	Name          string  `json:"name" binding:"required"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Quantity      int     `json:"quantity" binding:"min=0"`
	MinStockLevel *int    `json:"min_stock_level"`
	UnitPrice     float64 `json:"unit_price" binding:"min=0"`
	SupplierID    string  `json:"supplier_id"`
	Location      string  `json:"location"`
}

type UpdateItemRequest struct {
	Name          string   `json:"name" binding:"required"`
	SKU           string   `json:"sku"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Quantity      *int     `json:"quantity"`
	MinStockLevel *int     `json:"min_stock_level"`
	UnitPrice     *float64 `json:"unit_price"`
	SupplierID    string   `json:"supplier_id"`
	Location      string   `json:"location"`
}

type InventoryService interface {
	ListItems(ctx context.Context, filter repository.InventoryListFilter) ([]model.InventoryItem, int64, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	CreateItem(ctx context.Context, req CreateItemRequest) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// ApplyDelta adjusts stock levels for a batch of entries inside one
	// transaction. The whole batch is validated before any write; a
	// per-item failure mid-batch rolls everything back but still returns
	// the results computed so far for diagnostics.
	ApplyDelta(ctx context.Context, entries []AdjustmentEntry) ([]AdjustmentResult, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	txManager     repository.TransactionManager
	notifications NotificationService
	hub           *ws.Hub
	log           zerolog.Logger
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	txManager repository.TransactionManager,
	notifications NotificationService,
	hub *ws.Hub,
	log zerolog.Logger,
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		txManager:     txManager,
		notifications: notifications,
		hub:           hub,
		log:           log.With().Str("component", "inventory").Logger(),
	}
}

func (s *inventoryService) ListItems(ctx context.Context, filter repository.InventoryListFilter) ([]model.InventoryItem, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.inventoryRepo.List(ctx, filter)
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "inventory item not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load inventory item")
	}
	return item, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, req CreateItemRequest) (*model.InventoryItem, error) {
	item := model.InventoryItem{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Quantity:      req.Quantity,
		MinStockLevel: 10,
		UnitPrice:     decimal.NewFromFloat(req.UnitPrice),
		Location:      req.Location,
	}
	if req.MinStockLevel != nil {
		item.MinStockLevel = *req.MinStockLevel
	}
	if req.SKU != "" {
		if existing, err := s.inventoryRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
			return nil, apperror.New(apperror.KindConflict, "an item with SKU %s already exists", req.SKU)
		}
		sku := req.SKU
		item.SKU = &sku
	}
	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid supplier_id")
		}
		item.SupplierID = &supplierID
	}

	if err := s.inventoryRepo.Create(ctx, &item); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create inventory item")
	}

	if s.hub != nil {
		s.hub.Publish("inventory_created", item)
	}
	return &item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*model.InventoryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Category = req.Category
	item.Location = req.Location
	if req.SKU != "" {
		if existing, err := s.inventoryRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil && existing.ID != item.ID {
			return nil, apperror.New(apperror.KindConflict, "an item with SKU %s already exists", req.SKU)
		}
		sku := req.SKU
		item.SKU = &sku
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperror.New(apperror.KindValidation, "quantity cannot be negative")
		}
		item.Quantity = *req.Quantity
	}
	if req.MinStockLevel != nil {
		item.MinStockLevel = *req.MinStockLevel
	}
	if req.UnitPrice != nil {
		item.UnitPrice = decimal.NewFromFloat(*req.UnitPrice)
	}
	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid supplier_id")
		}
		item.SupplierID = &supplierID
	}

	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to update inventory item")
	}

	if item.IsLowStock() {
		s.notifications.LowStock(ctx, item)
	}
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	if err := s.inventoryRepo.Delete(ctx, id); err != nil {
		return apperror.Wrap(apperror.KindStorage, err, "failed to delete inventory item")
	}
	return nil
}

func (s *inventoryService) ApplyDelta(ctx context.Context, entries []AdjustmentEntry) ([]AdjustmentResult, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	// Validate the whole batch up front. One malformed entry fails the
	// batch before a single quantity changes.
	for i, entry := range entries {
		if entry.ItemID == uuid.Nil {
			return nil, apperror.New(apperror.KindValidation, "adjustment %d: missing item id", i)
		}
		if entry.Quantity <= 0 {
			return nil, apperror.New(apperror.KindValidation, "adjustment %d: quantity must be positive", i)
		}
		if entry.Direction != AdjustIncrement && entry.Direction != AdjustDecrement {
			return nil, apperror.New(apperror.KindValidation, "adjustment %d: direction must be %q or %q", i, AdjustIncrement, AdjustDecrement)
		}
	}

	var results []AdjustmentResult
	var lowStock []*model.InventoryItem

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, entry := range entries {
			item, err := s.inventoryRepo.FindByIDForUpdate(txCtx, entry.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.New(apperror.KindNotFound, "inventory item %s not found", entry.ItemID)
				}
				return apperror.Wrap(apperror.KindStorage, err, "failed to lock inventory item %s", entry.ItemID)
			}

			oldQuantity := item.Quantity
			newQuantity := oldQuantity
			switch entry.Direction {
			case AdjustIncrement:
				newQuantity = oldQuantity + entry.Quantity
			case AdjustDecrement:
				newQuantity = oldQuantity - entry.Quantity
				if newQuantity < 0 {
					// Stock floors at zero rather than failing the order
					newQuantity = 0
				}
			}

			if err := s.inventoryRepo.UpdateQuantity(txCtx, item.ID, newQuantity); err != nil {
				return apperror.Wrap(apperror.KindStorage, err, "failed to adjust quantity for %s", item.Name)
			}

			results = append(results, AdjustmentResult{
				ItemID:      item.ID,
				ItemName:    item.Name,
				Delta:       newQuantity - oldQuantity,
				OldQuantity: oldQuantity,
				NewQuantity: newQuantity,
			})

			item.Quantity = newQuantity
			if item.IsLowStock() {
				lowStock = append(lowStock, item)
			}
		}
		return nil
	})
	if err != nil {
		// results carries the partial progress for callers that report it,
		// even though the transaction has rolled every change back
		return results, err
	}

	for _, item := range lowStock {
		s.notifications.LowStock(ctx, item)
	}
	if s.hub != nil && len(results) > 0 {
		s.hub.Publish("inventory_adjusted", results)
	}

	s.log.Info().Int("items", len(results)).Msg("inventory adjusted")
	return results, nil
}

// describeAdjustments renders a compact human-readable summary used in
// orchestration debug output.
func describeAdjustments(results []AdjustmentResult) string {
	summary := ""
	for i, r := range results {
		if i > 0 {
			summary += "; "
		}
		summary += fmt.Sprintf("%s: %d -> %d", r.ItemName, r.OldQuantity, r.NewQuantity)
	}
	return summary
}
