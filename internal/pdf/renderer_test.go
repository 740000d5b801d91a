package pdf

import (
	"testing"
	"time"

	"github.com/chainsense/backend/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *model.Invoice {
	due := time.Now().AddDate(0, 0, 30)
	return &model.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-1700000000000-00042",
		IssueDate:     time.Now(),
		DueDate:       &due,
		Status:        model.InvoiceStatusUnpaid,
		AmountDue:     decimal.NewFromFloat(125.50),
		AmountPaid:    decimal.Zero,
		Terms:         "Net 30",
		Vendor: &model.Vendor{
			Name:    "Acme Packaging",
			Address: "42 Warehouse Road",
		},
		Items: []model.InvoiceItem{
			{Description: "Bubble Wrap", Quantity: 5, UnitPrice: decimal.NewFromFloat(10.10), Subtotal: decimal.NewFromFloat(50.50)},
			{Description: "Foam Sheet", Quantity: 3, UnitPrice: decimal.NewFromFloat(25.00), Subtotal: decimal.NewFromFloat(75.00)},
		},
	}
}

func TestEnsureRendersOnce(t *testing.T) {
	r := NewRenderer(t.TempDir(), zerolog.Nop())
	invoice := sampleInvoice()

	path, err := r.Ensure(invoice, false)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, r.Path(invoice.InvoiceNumber), path)
	assert.EqualValues(t, 1, r.RenderCount())

	// Second call serves the cached artifact
	again, err := r.Ensure(invoice, false)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.EqualValues(t, 1, r.RenderCount())
}

func TestEnsureForceRerenders(t *testing.T) {
	r := NewRenderer(t.TempDir(), zerolog.Nop())
	invoice := sampleInvoice()

	_, err := r.Ensure(invoice, false)
	require.NoError(t, err)

	_, err = r.Ensure(invoice, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, r.RenderCount())
}

func TestEnsureHandlesEmptyLines(t *testing.T) {
	r := NewRenderer(t.TempDir(), zerolog.Nop())
	invoice := sampleInvoice()
	invoice.Items = nil
	invoice.DueDate = nil
	invoice.Vendor = nil

	path, err := r.Ensure(invoice, false)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
