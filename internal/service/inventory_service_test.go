package service

import (
	"context"
	"testing"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDeltaIncrementAndDecrement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	itemA := env.seedItem(t, "Bubble Wrap", 10)
	itemB := env.seedItem(t, "Foam Sheet", 5)

	results, err := env.inventory.ApplyDelta(ctx, []AdjustmentEntry{
		{ItemID: itemA.ID, Direction: AdjustIncrement, Quantity: 15},
		{ItemID: itemB.ID, Direction: AdjustDecrement, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 25, results[0].NewQuantity)
	assert.Equal(t, 15, results[0].Delta)
	assert.Equal(t, 3, results[1].NewQuantity)
	assert.Equal(t, -2, results[1].Delta)

	assert.Equal(t, 25, env.itemQuantity(t, itemA.ID))
	assert.Equal(t, 3, env.itemQuantity(t, itemB.ID))
}

func TestApplyDeltaClampsAtZero(t *testing.T) {
	env := newTestEnv(t)

	item := env.seedItem(t, "Edge Protector", 3)
	results, err := env.inventory.ApplyDelta(context.Background(), []AdjustmentEntry{
		{ItemID: item.ID, Direction: AdjustDecrement, Quantity: 10},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 3, results[0].OldQuantity)
	assert.Equal(t, 0, results[0].NewQuantity)
	assert.Equal(t, -3, results[0].Delta)
	assert.Equal(t, 0, env.itemQuantity(t, item.ID))
}

func TestApplyDeltaValidatesWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.seedItem(t, "Stretch Film", 10)

	cases := []AdjustmentEntry{
		{ItemID: item.ID, Direction: AdjustDecrement, Quantity: 0},
		{ItemID: item.ID, Direction: "remove", Quantity: 1},
		{ItemID: uuid.Nil, Direction: AdjustDecrement, Quantity: 1},
	}
	for _, bad := range cases {
		results, err := env.inventory.ApplyDelta(ctx, []AdjustmentEntry{
			{ItemID: item.ID, Direction: AdjustDecrement, Quantity: 2},
			bad,
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Empty(t, results, "no write may happen before validation passes")
		assert.Equal(t, 10, env.itemQuantity(t, item.ID))
	}
}

func TestApplyDeltaMissingItemRollsBack(t *testing.T) {
	env := newTestEnv(t)

	item := env.seedItem(t, "Corner Board", 10)
	results, err := env.inventory.ApplyDelta(context.Background(), []AdjustmentEntry{
		{ItemID: item.ID, Direction: AdjustDecrement, Quantity: 4},
		{ItemID: uuid.New(), Direction: AdjustDecrement, Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	// The first entry was processed before the failure and shows up in the
	// partial results, but its write rolled back with the transaction
	require.Len(t, results, 1)
	assert.Equal(t, item.ID, results[0].ItemID)
	assert.Equal(t, 10, env.itemQuantity(t, item.ID))
}

func TestApplyDeltaEmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	results, err := env.inventory.ApplyDelta(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestApplyDeltaRaisesLowStockAlert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// MinStockLevel is 2 in the seed helper
	item := env.seedItem(t, "Void Fill", 10)
	_, err := env.inventory.ApplyDelta(ctx, []AdjustmentEntry{
		{ItemID: item.ID, Direction: AdjustDecrement, Quantity: 9},
	})
	require.NoError(t, err)

	var notifications []model.Notification
	require.NoError(t, env.db.Where("title = ?", "Low Stock Alert").Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeAlert, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "Void Fill")
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.inventory.CreateItem(ctx, CreateItemRequest{Name: "Tape Gun", SKU: "TG-100", UnitPrice: 9.99})
	require.NoError(t, err)

	_, err = env.inventory.CreateItem(ctx, CreateItemRequest{Name: "Tape Gun v2", SKU: "TG-100", UnitPrice: 10.99})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestUpdateItemUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.UpdateItem(context.Background(), uuid.New(), UpdateItemRequest{Name: "Ghost"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
