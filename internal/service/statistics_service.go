package service

import (
	"context"
	"time"

	"github.com/chainsense/backend/internal/model"

	"gorm.io/gorm"
)

type ItemRanking struct {
	ItemID        string  `json:"item_id"`
	ItemName      string  `json:"item_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

type DashboardStatistics struct {
	TimeRangeStartDate time.Time `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time `json:"time_range_end_date"`

	TotalItems        int64   `json:"total_items"`
	LowStockItems     int64   `json:"low_stock_items"`
	ActiveVendors     int64   `json:"active_vendors"`
	PendingOrders     int64   `json:"pending_orders"`
	OpenShipments     int64   `json:"open_shipments"`
	UnpaidInvoices    int64   `json:"unpaid_invoices"`
	OverdueInvoices   int64   `json:"overdue_invoices"`
	CompletedOrders   int64   `json:"completed_orders"`
	CompletedValue    float64 `json:"completed_value"`
	OutstandingAmount float64 `json:"outstanding_amount"`

	TopOrderedItems []ItemRanking `json:"top_ordered_items"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetDashboard aggregates headline metrics for the dashboard, bounding
// order-derived figures to the requested time bracket.
func (s *statisticsService) GetDashboard(ctx context.Context, startDate, endDate time.Time) (DashboardStatistics, error) {
	stats := DashboardStatistics{
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}
	db := s.db.WithContext(ctx)

	db.Model(&model.InventoryItem{}).Count(&stats.TotalItems)
	db.Model(&model.InventoryItem{}).Where("quantity <= min_stock_level").Count(&stats.LowStockItems)
	db.Model(&model.Vendor{}).Where("status = ?", model.VendorStatusActive).Count(&stats.ActiveVendors)
	db.Model(&model.PurchaseOrder{}).Where("status = ?", model.POStatusPending).Count(&stats.PendingOrders)
	db.Model(&model.Shipment{}).
		Where("status IN ?", []string{model.ShipmentStatusPending, model.ShipmentStatusInTransit, model.ShipmentStatusDelayed}).
		Count(&stats.OpenShipments)
	db.Model(&model.Invoice{}).Where("status <> ?", model.InvoiceStatusPaid).Count(&stats.UnpaidInvoices)
	db.Model(&model.Invoice{}).
		Where("status <> ? AND due_date IS NOT NULL AND due_date < CURRENT_TIMESTAMP", model.InvoiceStatusPaid).
		Count(&stats.OverdueInvoices)

	var completed struct {
		Count int64
		Value float64
	}
	db.Model(&model.PurchaseOrder{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_amount), 0) as value").
		Where("status = ? AND order_date >= ? AND order_date <= ?", model.POStatusCompleted, startDate, endDate).
		Scan(&completed)
	stats.CompletedOrders = completed.Count
	stats.CompletedValue = completed.Value

	var outstanding struct {
		Value float64
	}
	db.Model(&model.Invoice{}).
		Select("COALESCE(SUM(amount_due - amount_paid), 0) as value").
		Where("status <> ?", model.InvoiceStatusPaid).
		Scan(&outstanding)
	stats.OutstandingAmount = outstanding.Value

	var topItems []ItemRanking
	db.Table("purchase_order_items").
		Select("inventory_items.id as item_id, inventory_items.name as item_name, SUM(purchase_order_items.quantity) as total_quantity, SUM(purchase_order_items.subtotal) as total_value").
		Joins("JOIN inventory_items ON inventory_items.id = purchase_order_items.item_id").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.po_id").
		Where("purchase_orders.status = ? AND purchase_orders.order_date >= ? AND purchase_orders.order_date <= ?", model.POStatusCompleted, startDate, endDate).
		Group("inventory_items.id, inventory_items.name").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&topItems)
	stats.TopOrderedItems = topItems

	return stats, nil
}
