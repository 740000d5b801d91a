package service

import (
	"context"
	"testing"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTransitionFirstCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Pallet Jack", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 4})

	result, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, model.POStatusPending, result.PreviousStatus)
	assert.Equal(t, model.POStatusCompleted, result.NewStatus)
	assert.False(t, result.PartialFailure())

	assert.True(t, result.InventoryUpdated)
	require.Len(t, result.InventoryDetails, 1)
	detail := result.InventoryDetails[0]
	assert.Equal(t, item.ID, detail.ItemID)
	assert.Equal(t, "Pallet Jack", detail.ItemName)
	assert.Equal(t, -4, detail.Delta)
	assert.Equal(t, 10, detail.OldQuantity)
	assert.Equal(t, 6, detail.NewQuantity)
	assert.Equal(t, 6, env.itemQuantity(t, item.ID))

	assert.True(t, result.Billing.Attempted)
	assert.True(t, result.Billing.Created)
	assert.False(t, result.Billing.AlreadyExisted)
	require.NotNil(t, result.Billing.Invoice)
	assert.True(t, result.Billing.Invoice.AmountDue.Equal(order.TotalAmount))
	assert.Equal(t, model.InvoiceStatusUnpaid, result.Billing.Invoice.Status)

	stored, err := env.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCompleted, stored.Status)
}

func TestTransitionRepeatCompletionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Forklift Tyre", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 3})

	first, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)
	require.True(t, first.Billing.Created)
	require.NotNil(t, first.Billing.Invoice)
	require.Equal(t, 7, env.itemQuantity(t, item.ID))

	// Re-requesting completed must not decrement again or mint a second
	// invoice, but the response still reports the invoice that exists.
	second, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCompleted, second.PreviousStatus)
	assert.False(t, second.InventoryUpdated)
	assert.False(t, second.Billing.Created)
	assert.True(t, second.Billing.AlreadyExisted)
	require.NotNil(t, second.Billing.Invoice)
	assert.Equal(t, first.Billing.Invoice.InvoiceNumber, second.Billing.Invoice.InvoiceNumber)
	assert.Equal(t, 7, env.itemQuantity(t, item.ID))
	assert.EqualValues(t, 1, env.countInvoicesForOrder(t, order.ID))
}

func TestTransitionDecrementClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Strapping Roll", 2)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 5})

	result, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)

	require.Len(t, result.InventoryDetails, 1)
	assert.Equal(t, 2, result.InventoryDetails[0].OldQuantity)
	assert.Equal(t, 0, result.InventoryDetails[0].NewQuantity)
	assert.Equal(t, -2, result.InventoryDetails[0].Delta)
	assert.Equal(t, 0, env.itemQuantity(t, item.ID))
}

func TestTransitionInventoryFailureStillBills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Shrink Wrap", 10)
	// The second line points at an item that does not exist
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{
		item.ID:    2,
		uuid.New(): 1,
	})

	result, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)

	assert.True(t, result.PartialFailure())
	assert.False(t, result.InventoryUpdated)
	assert.NotEmpty(t, result.InventoryError)

	// The adjustment transaction rolled back, so even the valid line's
	// stock is untouched
	assert.Equal(t, 10, env.itemQuantity(t, item.ID))

	// Billing still ran: the vendor shipped goods either way
	assert.True(t, result.Billing.Attempted)
	assert.True(t, result.Billing.Created)
	assert.Empty(t, result.Billing.Error)
	assert.EqualValues(t, 1, env.countInvoicesForOrder(t, order.ID))

	// The status write always lands first
	stored, err := env.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCompleted, stored.Status)
}

func TestTransitionStatusOnlyMoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Conveyor Belt", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 3})

	result, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, model.POStatusCancelled, result.NewStatus)
	assert.False(t, result.Billing.Attempted)
	assert.False(t, result.InventoryUpdated)
	assert.Empty(t, result.InventoryDetails)
	assert.Equal(t, 10, env.itemQuantity(t, item.ID))
	assert.EqualValues(t, 0, env.countInvoicesForOrder(t, order.ID))

	// cancelled back to pending is also a plain status write
	reopened, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCancelled, reopened.PreviousStatus)
	assert.Equal(t, model.POStatusPending, reopened.NewStatus)
}

func TestTransitionRejectsInvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Hand Truck", 5)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 1})

	_, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, "shipped")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	stored, err := env.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusPending, stored.Status)
}

func TestTransitionUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.Transition(context.Background(), uuid.New(), model.RoleAdmin, uuid.New(), model.POStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestTransitionVendorScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	portalUser := &model.User{
		Username: "acme-portal",
		Email:    "portal@acme.example",
		Password: string(hashed),
		Role:     model.RoleVendor,
	}
	require.NoError(t, env.userRepo.Create(ctx, portalUser))

	owner := env.seedVendor(t, "Net 30")
	owner.UserID = &portalUser.ID
	require.NoError(t, env.vendorRepo.Update(ctx, owner))

	other := &model.Vendor{Name: "Other Supplies", Status: model.VendorStatusActive}
	require.NoError(t, env.vendorRepo.Create(ctx, other))

	item := env.seedItem(t, "Packing Tape", 10)
	foreignOrder := env.seedOrder(t, other, map[uuid.UUID]int{item.ID: 1})

	_, err = env.orders.Transition(ctx, portalUser.ID, model.RoleVendor, foreignOrder.ID, model.POStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAccessDenied, apperror.KindOf(err))

	stored, err := env.orderRepo.FindByID(ctx, foreignOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusPending, stored.Status)

	// The linked vendor can complete its own order
	ownOrder := env.seedOrder(t, owner, map[uuid.UUID]int{item.ID: 2})
	result, err := env.orders.Transition(ctx, portalUser.ID, model.RoleVendor, ownOrder.ID, model.POStatusCompleted)
	require.NoError(t, err)
	assert.True(t, result.Billing.Created)
}

func TestTransitionPersistsStatusNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Dock Bumper", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 1})

	_, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)

	var notifications []model.Notification
	require.NoError(t, env.db.Where("title = ?", "Purchase Order Status Updated").Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, order.PONumber)
	assert.Contains(t, notifications[0].Message, model.POStatusCompleted)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	itemA := env.seedItem(t, "Crate", 50)
	itemB := env.seedItem(t, "Lid", 50)

	order, err := env.orders.CreateOrder(ctx, uuid.New(), CreateOrderRequest{
		VendorID: vendor.ID.String(),
		Items: []OrderItemRequest{
			{ItemID: itemA.ID.String(), Quantity: 3, UnitPrice: 12.50},
			{ItemID: itemB.ID.String(), Quantity: 2, UnitPrice: 4.25},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^PO-\d+-\d{9}$`, order.PONumber)
	assert.Equal(t, "46.00", order.TotalAmount.StringFixed(2))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, model.POStatusPending, order.Status)
}

func TestCreateOrderRejectsUnknownItem(t *testing.T) {
	env := newTestEnv(t)

	vendor := env.seedVendor(t, "Net 30")
	_, err := env.orders.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{
		VendorID: vendor.ID.String(),
		Items: []OrderItemRequest{
			{ItemID: uuid.NewString(), Quantity: 1, UnitPrice: 5},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteCompletedOrderRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Ratchet Strap", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 1})

	_, err := env.orders.Transition(ctx, uuid.New(), model.RoleAdmin, order.ID, model.POStatusCompleted)
	require.NoError(t, err)

	err = env.orders.DeleteOrder(ctx, order.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}
