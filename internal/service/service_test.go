package service

import (
	"context"
	"testing"

	"github.com/chainsense/backend/internal/mailer"
	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/pdf"
	"github.com/chainsense/backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db *gorm.DB

	userRepo      repository.UserRepository
	vendorRepo    repository.VendorRepository
	inventoryRepo repository.InventoryRepository
	orderRepo     repository.PurchaseOrderRepository
	invoiceRepo   repository.InvoiceRepository

	renderer *pdf.Renderer

	users         UserService
	vendors       VendorService
	inventory     InventoryService
	billing       BillingService
	orders        PurchaseOrderService
	notifications NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// the in-memory database lives per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Vendor{},
		&model.InventoryItem{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.Shipment{},
		&model.ShipmentHistory{},
		&model.Notification{},
	))

	log := zerolog.Nop()
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	renderer := pdf.NewRenderer(t.TempDir(), log)
	notifications := NewNotificationService(notificationRepo, userRepo, nil,
		mailer.NewDisabledMailer(log), mailer.NewDisabledSMS(log), log)
	inventory := NewInventoryService(inventoryRepo, txManager, notifications, nil, log)
	billing := NewBillingService(invoiceRepo, vendorRepo, txManager, renderer, notifications, log)
	orders := NewPurchaseOrderService(orderRepo, vendorRepo, inventoryRepo, txManager,
		inventory, billing, notifications, nil, log)

	return &testEnv{
		db:            db,
		userRepo:      userRepo,
		vendorRepo:    vendorRepo,
		inventoryRepo: inventoryRepo,
		orderRepo:     orderRepo,
		invoiceRepo:   invoiceRepo,
		renderer:      renderer,
		users:         NewUserService(userRepo),
		vendors:       NewVendorService(vendorRepo, userRepo),
		inventory:     inventory,
		billing:       billing,
		orders:        orders,
		notifications: notifications,
	}
}

func (e *testEnv) seedVendor(t *testing.T, paymentTerms string) *model.Vendor {
	t.Helper()
	vendor := &model.Vendor{
		Name:         "Acme Logistics",
		Email:        "ap@acme.example",
		Address:      "42 Dock Road",
		PaymentTerms: paymentTerms,
		Status:       model.VendorStatusActive,
	}
	require.NoError(t, e.vendorRepo.Create(context.Background(), vendor))
	return vendor
}

func (e *testEnv) seedItem(t *testing.T, name string, quantity int) *model.InventoryItem {
	t.Helper()
	item := &model.InventoryItem{
		Name:          name,
		Quantity:      quantity,
		MinStockLevel: 2,
		UnitPrice:     decimal.NewFromInt(10),
	}
	require.NoError(t, e.inventoryRepo.Create(context.Background(), item))
	return item
}

// seedOrder creates a pending order directly through the repository so
// tests can shape line items freely, including ones that point at items
// which no longer exist.
func (e *testEnv) seedOrder(t *testing.T, vendor *model.Vendor, lines map[uuid.UUID]int) *model.PurchaseOrder {
	t.Helper()
	ctx := context.Background()

	total := decimal.Zero
	order := &model.PurchaseOrder{
		PONumber:  mintPONumber(),
		VendorID:  vendor.ID,
		CreatedBy: uuid.New(),
		Status:    model.POStatusPending,
	}
	unitPrice := decimal.NewFromInt(10)
	for _, qty := range lines {
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	order.TotalAmount = total
	require.NoError(t, e.orderRepo.Create(ctx, order))

	for itemID, qty := range lines {
		require.NoError(t, e.orderRepo.CreateItem(ctx, &model.PurchaseOrderItem{
			POID:      order.ID,
			ItemID:    itemID,
			Quantity:  qty,
			UnitPrice: unitPrice,
			Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(qty))),
		}))
	}

	loaded, err := e.orderRepo.FindByIDWithItems(ctx, order.ID)
	require.NoError(t, err)
	return loaded
}

func (e *testEnv) itemQuantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := e.inventoryRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func (e *testEnv) countInvoicesForOrder(t *testing.T, orderID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.Invoice{}).Where("po_id = ?", orderID).Count(&count).Error)
	return count
}
