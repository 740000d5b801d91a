package service

import (
	"context"
	"testing"
	"time"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermsDays(t *testing.T) {
	cases := []struct {
		terms string
		want  int
	}{
		{"Net 45", 45},
		{"net 15", 15},
		{"due in 15 days", 15},
		{"Net 30", 30},
		{"", 30},
		{"on receipt", 30},
		{"Net 0", 30},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, termsDays(tc.terms), "terms %q", tc.terms)
	}
}

func TestGenerateForOrderLineRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 45")
	itemA := env.seedItem(t, "Drum Liner", 100)
	itemB := env.seedItem(t, "Spill Kit", 100)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{itemA.ID: 3, itemB.ID: 7})

	result, err := env.billing.GenerateForOrder(ctx, order, uuid.New())
	require.NoError(t, err)
	require.True(t, result.Created)
	require.NotNil(t, result.Invoice)

	invoice := result.Invoice
	assert.Regexp(t, `^INV-\d+-\d{5}$`, invoice.InvoiceNumber)
	assert.True(t, invoice.AmountDue.Equal(order.TotalAmount))
	assert.Equal(t, vendor.PaymentTerms, invoice.Terms)
	assert.Equal(t, vendor.Address, invoice.BillingAddress)

	require.Len(t, invoice.Items, 2)
	lineTotal := decimal.Zero
	for _, line := range invoice.Items {
		lineTotal = lineTotal.Add(line.Subtotal)
	}
	assert.True(t, lineTotal.Equal(invoice.AmountDue), "line subtotals must sum to the amount due")

	// Net 45 terms push the due date ~45 days out
	require.NotNil(t, invoice.DueDate)
	expected := time.Now().AddDate(0, 0, 45)
	assert.WithinDuration(t, expected, *invoice.DueDate, time.Hour)
}

func TestGenerateForOrderSyntheticLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	order := &model.PurchaseOrder{
		PONumber:    mintPONumber(),
		VendorID:    vendor.ID,
		CreatedBy:   uuid.New(),
		Status:      model.POStatusPending,
		TotalAmount: decimal.NewFromInt(500),
	}
	require.NoError(t, env.orderRepo.Create(ctx, order))

	result, err := env.billing.GenerateForOrder(ctx, order, uuid.New())
	require.NoError(t, err)
	require.True(t, result.Created)

	require.Len(t, result.Invoice.Items, 1)
	line := result.Invoice.Items[0]
	assert.Contains(t, line.Description, order.PONumber)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, line.Subtotal.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Invoice.AmountDue.Equal(decimal.NewFromInt(500)))
}

func TestGenerateForOrderSecondCallReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Label Printer", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 1})

	first, err := env.billing.GenerateForOrder(ctx, order, uuid.New())
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := env.billing.GenerateForOrder(ctx, order, uuid.New())
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.EqualValues(t, 1, env.countInvoicesForOrder(t, order.ID))
}

func TestRecordPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	invoice, err := env.billing.CreateInvoice(ctx, uuid.New(), CreateInvoiceRequest{
		VendorID: vendor.ID.String(),
		Items: []InvoiceItemRequest{
			{Description: "Freight surcharge", Quantity: 1, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusUnpaid, invoice.Status)
	require.Equal(t, "100.00", invoice.AmountRemaining.StringFixed(2))

	// Partial payment
	afterFirst, err := env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: 40, Method: "wire"})
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPartial, afterFirst.Status)
	assert.Equal(t, "60.00", afterFirst.AmountRemaining.StringFixed(2))
	assert.Len(t, afterFirst.Payments, 1)

	// Settling payment
	afterSecond, err := env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: 60, Method: "wire"})
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, afterSecond.Status)
	assert.True(t, afterSecond.AmountRemaining.IsZero())
	assert.Len(t, afterSecond.Payments, 2)

	// A settled invoice takes no more money
	_, err = env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: 1})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestRecordPaymentRejectsBadAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	invoice, err := env.billing.CreateInvoice(ctx, uuid.New(), CreateInvoiceRequest{
		VendorID: vendor.ID.String(),
		Items: []InvoiceItemRequest{
			{Description: "Pallets", Quantity: 10, UnitPrice: 5},
		},
	})
	require.NoError(t, err)

	_, err = env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: 0})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: -5})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	// Over the remaining balance
	_, err = env.billing.RecordPayment(ctx, invoice.ID, uuid.New(), RecordPaymentRequest{Amount: 50.01})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Nothing was recorded
	view, err := env.billing.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Payments)
	assert.Equal(t, model.InvoiceStatusUnpaid, view.Status)
}

func TestInvoiceViewDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	past := time.Now().AddDate(0, 0, -10)
	invoice := &model.Invoice{
		InvoiceNumber: mintInvoiceNumber(),
		VendorID:      vendor.ID,
		AmountDue:     decimal.NewFromInt(200),
		AmountPaid:    decimal.NewFromInt(50),
		Status:        model.InvoiceStatusPartial,
		IssueDate:     past,
		DueDate:       &past,
	}
	require.NoError(t, env.invoiceRepo.Create(ctx, invoice))

	view, err := env.billing.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "150.00", view.AmountRemaining.StringFixed(2))
	assert.True(t, view.Overdue)
}

func TestGenerateForOrderRendersPDFAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vendor := env.seedVendor(t, "Net 30")
	item := env.seedItem(t, "Barcode Scanner", 10)
	order := env.seedOrder(t, vendor, map[uuid.UUID]int{item.ID: 2})

	result, err := env.billing.GenerateForOrder(ctx, order, uuid.New())
	require.NoError(t, err)

	assert.EqualValues(t, 1, env.renderer.RenderCount())
	assert.FileExists(t, env.renderer.Path(result.Invoice.InvoiceNumber))

	var notifications []model.Notification
	require.NoError(t, env.db.Where("title = ?", "Invoice Generated").Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, result.Invoice.InvoiceNumber)
}
