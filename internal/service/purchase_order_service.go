package service

import (
	"context"
	"errors"
	"time"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	ws "github.com/chainsense/backend/internal/websocket"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ItemID    string  `json:"item_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	VendorID             string             `json:"vendor_id" binding:"required"`
	Items                []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ExpectedDeliveryDate *time.Time         `json:"expected_delivery_date"`
	Notes                string             `json:"notes"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// BillingResult reports the invoice side of a completion. Attempted is
// false for transitions that never reach billing.
type BillingResult struct {
	Attempted      bool           `json:"attempted"`
	Created        bool           `json:"created"`
	AlreadyExisted bool           `json:"already_existed"`
	Invoice        *model.Invoice `json:"invoice,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// TransitionResult is the composed outcome of a status change. The status
// write always lands before side effects run, so a populated error field
// here means the order moved but a downstream step failed.
type TransitionResult struct {
	Order            *model.PurchaseOrder `json:"order"`
	PreviousStatus   string               `json:"previous_status"`
	NewStatus        string               `json:"new_status"`
	InventoryUpdated bool                 `json:"inventory_updated"`
	InventoryError   string               `json:"inventory_error,omitempty"`
	InventoryDetails []AdjustmentResult   `json:"inventory_details,omitempty"`
	Billing          BillingResult        `json:"billing"`
	Debug            string               `json:"debug,omitempty"`
}

// PartialFailure reports whether any side effect failed after the status
// write succeeded.
func (r *TransitionResult) PartialFailure() bool {
	return r.InventoryError != "" || r.Billing.Error != ""
}

type PurchaseOrderService interface {
	CreateOrder(ctx context.Context, actorID uuid.UUID, req CreateOrderRequest) (*model.PurchaseOrder, error)
	GetOrder(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) (*model.PurchaseOrder, error)
	ListOrders(ctx context.Context, actorID uuid.UUID, role string, filter repository.PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	// Transition moves an order to the requested status and, on the first
	// arrival at completed, decrements stock and generates the invoice.
	// The status write is unconditional and happens before any side
	// effect; side effects are reported in the result, never rolled into
	// the transition's own success.
	Transition(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID, requested string) (*TransitionResult, error)
}

type purchaseOrderService struct {
	orderRepo     repository.PurchaseOrderRepository
	vendorRepo    repository.VendorRepository
	inventoryRepo repository.InventoryRepository
	txManager     repository.TransactionManager
	inventory     InventoryService
	billing       BillingService
	notifications NotificationService
	hub           *ws.Hub
	log           zerolog.Logger
}

func NewPurchaseOrderService(
	orderRepo repository.PurchaseOrderRepository,
	vendorRepo repository.VendorRepository,
	inventoryRepo repository.InventoryRepository,
	txManager repository.TransactionManager,
	inventory InventoryService,
	billing BillingService,
	notifications NotificationService,
	hub *ws.Hub,
	log zerolog.Logger,
) PurchaseOrderService {
	return &purchaseOrderService{
		orderRepo:     orderRepo,
		vendorRepo:    vendorRepo,
		inventoryRepo: inventoryRepo,
		txManager:     txManager,
		inventory:     inventory,
		billing:       billing,
		notifications: notifications,
		hub:           hub,
		log:           log.With().Str("component", "purchase_orders").Logger(),
	}
}

func validStatus(status string) bool {
	switch status {
	case model.POStatusPending, model.POStatusCompleted, model.POStatusCancelled:
		return true
	}
	return false
}

func (s *purchaseOrderService) CreateOrder(ctx context.Context, actorID uuid.UUID, req CreateOrderRequest) (*model.PurchaseOrder, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid vendor_id")
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "vendor not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load vendor")
	}

	type resolvedItem struct {
		itemID    uuid.UUID
		quantity  int
		unitPrice decimal.Decimal
		subtotal  decimal.Decimal
	}
	resolved := make([]resolvedItem, 0, len(req.Items))
	total := decimal.Zero
	for _, itemReq := range req.Items {
		itemID, parseErr := uuid.Parse(itemReq.ItemID)
		if parseErr != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid item_id %s", itemReq.ItemID)
		}
		if _, findErr := s.inventoryRepo.FindByID(ctx, itemID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, apperror.New(apperror.KindNotFound, "inventory item %s not found", itemReq.ItemID)
			}
			return nil, apperror.Wrap(apperror.KindStorage, findErr, "failed to load inventory item %s", itemReq.ItemID)
		}

		unitPrice := decimal.NewFromFloat(itemReq.UnitPrice)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity)))
		total = total.Add(subtotal)
		resolved = append(resolved, resolvedItem{
			itemID:    itemID,
			quantity:  itemReq.Quantity,
			unitPrice: unitPrice,
			subtotal:  subtotal,
		})
	}

	order := model.PurchaseOrder{
		PONumber:             mintPONumber(),
		VendorID:             vendorID,
		CreatedBy:            actorID,
		Status:               model.POStatusPending,
		TotalAmount:          total,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Notes:                req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return err
		}
		for _, item := range resolved {
			orderItem := &model.PurchaseOrderItem{
				POID:      order.ID,
				ItemID:    item.itemID,
				Quantity:  item.quantity,
				UnitPrice: item.unitPrice,
				Subtotal:  item.subtotal,
			}
			if err := s.orderRepo.CreateItem(txCtx, orderItem); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create purchase order")
	}

	s.log.Info().
		Str("po_number", order.PONumber).
		Str("vendor", vendor.Name).
		Str("total", total.StringFixed(2)).
		Msg("purchase order created")

	s.notifications.OrderCreated(ctx, &order, vendor)
	if s.hub != nil {
		s.hub.Publish("purchase_order_created", order)
	}

	return s.orderRepo.FindByIDWithItems(ctx, order.ID)
}

// scopedVendorID resolves the vendor record linked to a vendor-role user.
// Non-vendor roles see everything and get a nil scope.
func (s *purchaseOrderService) scopedVendorID(ctx context.Context, actorID uuid.UUID, role string) (*uuid.UUID, error) {
	if role != model.RoleVendor {
		return nil, nil
	}
	vendor, err := s.vendorRepo.FindByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindAccessDenied, "no vendor account is linked to this user")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to resolve vendor account")
	}
	return &vendor.ID, nil
}

func (s *purchaseOrderService) GetOrder(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "purchase order not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load purchase order")
	}

	scope, err := s.scopedVendorID(ctx, actorID, role)
	if err != nil {
		return nil, err
	}
	if scope != nil && order.VendorID != *scope {
		return nil, apperror.New(apperror.KindAccessDenied, "purchase order belongs to another vendor")
	}
	return order, nil
}

func (s *purchaseOrderService) ListOrders(ctx context.Context, actorID uuid.UUID, role string, filter repository.PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error) {
	scope, err := s.scopedVendorID(ctx, actorID, role)
	if err != nil {
		return nil, 0, err
	}
	if scope != nil {
		filter.VendorID = scope
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.orderRepo.List(ctx, filter)
}

func (s *purchaseOrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindNotFound, "purchase order not found")
		}
		return apperror.Wrap(apperror.KindStorage, err, "failed to load purchase order")
	}
	if order.Status == model.POStatusCompleted {
		return apperror.New(apperror.KindConflict, "completed purchase orders cannot be deleted")
	}
	return s.orderRepo.Delete(ctx, id)
}

func (s *purchaseOrderService) Transition(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID, requested string) (*TransitionResult, error) {
	if !validStatus(requested) {
		return nil, apperror.New(apperror.KindValidation, "invalid status %q", requested)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "purchase order not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load purchase order")
	}

	scope, err := s.scopedVendorID(ctx, actorID, role)
	if err != nil {
		return nil, err
	}
	if scope != nil && order.VendorID != *scope {
		return nil, apperror.New(apperror.KindAccessDenied, "purchase order belongs to another vendor")
	}

	previous := order.Status

	// The status write comes first and is never conditioned on downstream
	// fulfillment. Everything after this point is reported, not rolled back.
	if err := s.orderRepo.UpdateStatus(ctx, id, requested); err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to update order status")
	}
	order.Status = requested

	result := &TransitionResult{
		Order:          order,
		PreviousStatus: previous,
		NewStatus:      requested,
	}

	// Fulfillment fires only on the first arrival at completed. Repeating
	// the completed status skips the stock decrement but still surfaces the
	// existing invoice, so the caller can tell the order was already billed.
	firstCompletion := previous != model.POStatusCompleted && requested == model.POStatusCompleted
	switch {
	case firstCompletion:
		s.fulfill(ctx, actorID, order, result)
	case requested == model.POStatusCompleted:
		s.reportExistingBilling(ctx, actorID, order, result)
	}

	s.notifications.OrderStatusChanged(ctx, order, previous, requested)
	if s.hub != nil {
		s.hub.Publish("purchase_order_status", map[string]interface{}{
			"po_number":       order.PONumber,
			"previous_status": previous,
			"new_status":      requested,
		})
	}

	s.log.Info().
		Str("po_number", order.PONumber).
		Str("previous", previous).
		Str("new", requested).
		Bool("fulfillment", firstCompletion).
		Bool("partial_failure", result.PartialFailure()).
		Msg("purchase order transitioned")

	return result, nil
}

// fulfill runs the completion side effects: stock decrement, then invoice
// generation. An inventory failure does not stop billing; the vendor is
// owed money for what they shipped regardless of our stock bookkeeping.
func (s *purchaseOrderService) fulfill(ctx context.Context, actorID uuid.UUID, order *model.PurchaseOrder, result *TransitionResult) {
	entries := make([]AdjustmentEntry, 0, len(order.Items))
	for _, item := range order.Items {
		entries = append(entries, AdjustmentEntry{
			ItemID:    item.ItemID,
			Direction: AdjustDecrement,
			Quantity:  item.Quantity,
		})
	}

	details, invErr := s.inventory.ApplyDelta(ctx, entries)
	result.InventoryDetails = details
	if invErr != nil {
		result.InventoryError = invErr.Error()
		s.log.Error().Err(invErr).Str("po_number", order.PONumber).Msg("inventory update failed during fulfillment")
	} else {
		result.InventoryUpdated = true
		result.Debug = describeAdjustments(details)
	}

	result.Billing.Attempted = true
	outcome, billErr := s.billing.GenerateForOrder(ctx, order, actorID)
	if billErr != nil {
		result.Billing.Error = billErr.Error()
		s.log.Error().Err(billErr).Str("po_number", order.PONumber).Msg("invoice generation failed during fulfillment")
		return
	}
	result.Billing.Created = outcome.Created
	result.Billing.AlreadyExisted = outcome.AlreadyExisted
	result.Billing.Invoice = outcome.Invoice
}

// reportExistingBilling handles the repeat-completion path. GenerateForOrder
// is idempotent, so for an already-billed order this is a read that attaches
// the existing invoice to the result.
func (s *purchaseOrderService) reportExistingBilling(ctx context.Context, actorID uuid.UUID, order *model.PurchaseOrder, result *TransitionResult) {
	result.Billing.Attempted = true
	outcome, err := s.billing.GenerateForOrder(ctx, order, actorID)
	if err != nil {
		result.Billing.Error = err.Error()
		s.log.Error().Err(err).Str("po_number", order.PONumber).Msg("invoice lookup failed on repeat completion")
		return
	}
	result.Billing.Created = outcome.Created
	result.Billing.AlreadyExisted = outcome.AlreadyExisted
	result.Billing.Invoice = outcome.Invoice
}
