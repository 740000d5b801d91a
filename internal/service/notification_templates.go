package service

import (
	"fmt"

	"github.com/chainsense/backend/internal/model"
)

// Notification builders. Keeping the wording in one place means callers
// pass structured inputs and never concatenate display strings themselves.

func OrderCreatedNotification(order *model.PurchaseOrder, vendor *model.Vendor) *model.Notification {
	vendorName := "vendor"
	if vendor != nil {
		vendorName = vendor.Name
	}
	return &model.Notification{
		Type:    model.NotificationTypeInfo,
		Title:   "Purchase Order Created",
		Message: fmt.Sprintf("Purchase order %s for %s was created (total $%s).", order.PONumber, vendorName, order.TotalAmount.StringFixed(2)),
	}
}

func StatusChangeNotification(order *model.PurchaseOrder, previous, next string) *model.Notification {
	notifType := model.NotificationTypeInfo
	if next == model.POStatusCancelled {
		notifType = model.NotificationTypeWarning
	}
	return &model.Notification{
		Type:    notifType,
		Title:   "Purchase Order Status Updated",
		Message: fmt.Sprintf("Purchase order %s moved from %s to %s.", order.PONumber, previous, next),
	}
}

func LowStockNotification(item *model.InventoryItem) *model.Notification {
	return &model.Notification{
		Type:    model.NotificationTypeAlert,
		Title:   "Low Stock Alert",
		Message: fmt.Sprintf("%s is down to %d units (reorder at %d).", item.Name, item.Quantity, item.MinStockLevel),
	}
}

func InvoiceGeneratedNotification(invoice *model.Invoice, vendor *model.Vendor) *model.Notification {
	vendorName := "vendor"
	if vendor != nil {
		vendorName = vendor.Name
	}
	return &model.Notification{
		Type:    model.NotificationTypeInfo,
		Title:   "Invoice Generated",
		Message: fmt.Sprintf("Invoice %s for %s was generated ($%s due).", invoice.InvoiceNumber, vendorName, invoice.AmountDue.StringFixed(2)),
	}
}

// Email bodies. Plain inline-styled HTML so they render in any client.

func orderCreatedEmail(order *model.PurchaseOrder, vendor *model.Vendor) string {
	expected := "TBD"
	if order.ExpectedDeliveryDate != nil {
		expected = order.ExpectedDeliveryDate.Format("02 Jan 2006")
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h2 style="color: #2c3e50;">New Purchase Order</h2>
  <p>Hello %s,</p>
  <p>A new purchase order has been placed with you.</p>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><td style="padding: 6px; border: 1px solid #ddd;"><b>PO Number</b></td><td style="padding: 6px; border: 1px solid #ddd;">%s</td></tr>
    <tr><td style="padding: 6px; border: 1px solid #ddd;"><b>Total Amount</b></td><td style="padding: 6px; border: 1px solid #ddd;">$%s</td></tr>
    <tr><td style="padding: 6px; border: 1px solid #ddd;"><b>Expected Delivery</b></td><td style="padding: 6px; border: 1px solid #ddd;">%s</td></tr>
  </table>
  <p>Please confirm receipt through your vendor portal.</p>
  <p style="color: #7f8c8d; font-size: 12px;">Chain Sense — Supply Chain Management Suite</p>
</div>`, vendor.Name, order.PONumber, order.TotalAmount.StringFixed(2), expected)
}

func lowStockEmail(item *model.InventoryItem) string {
	sku := "N/A"
	if item.SKU != nil {
		sku = *item.SKU
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h2 style="color: #c0392b;">Low Stock Alert</h2>
  <p><b>%s</b> (SKU %s) has dropped to <b>%d units</b>, at or below its reorder threshold of %d.</p>
  <p>Consider raising a purchase order with the supplier.</p>
  <p style="color: #7f8c8d; font-size: 12px;">Chain Sense — Supply Chain Management Suite</p>
</div>`, item.Name, sku, item.Quantity, item.MinStockLevel)
}

func invoicePendingEmail(invoice *model.Invoice, vendor *model.Vendor) string {
	dueDate := "upon receipt"
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format("02 Jan 2006")
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h2 style="color: #2c3e50;">Invoice %s</h2>
  <p>Hello %s,</p>
  <p>An invoice has been generated for your recent purchase order.</p>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><td style="padding: 6px; border: 1px solid #ddd;"><b>Amount Due</b></td><td style="padding: 6px; border: 1px solid #ddd;">$%s</td></tr>
    <tr><td style="padding: 6px; border: 1px solid #ddd;"><b>Due Date</b></td><td style="padding: 6px; border: 1px solid #ddd;">%s</td></tr>
  </table>
  <p>The invoice PDF is attached for your records.</p>
  <p style="color: #7f8c8d; font-size: 12px;">Chain Sense — Supply Chain Management Suite</p>
</div>`, invoice.InvoiceNumber, vendor.Name, invoice.AmountDue.StringFixed(2), dueDate)
}
