package handler

import (
	"fmt"
	"net/http"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/pkg/pagination"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/billing/invoices")
	{
		invoices.GET("", middleware.RequireRole(allRoles...), h.ListInvoices)
		invoices.GET("/:id", middleware.RequireRole(allRoles...), h.GetInvoice)
		invoices.POST("", middleware.RequireRole(staffRoles...), h.CreateInvoice)
		invoices.GET("/:id/pdf", middleware.RequireRole(allRoles...), h.DownloadPDF)
		invoices.POST("/:id/payments", middleware.RequireRole(staffRoles...), h.RecordPayment)
		invoices.GET("/:id/payments", middleware.RequireRole(allRoles...), h.ListPayments)
	}
}

// ListInvoices returns a paginated invoice listing with derived fields
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by status (unpaid, partial, paid)"
// @Param        vendor_id  query     string  false  "Filter by vendor"
// @Param        overdue    query     bool    false  "Only invoices past their due date"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/billing/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.InvoiceListFilter{
		Status:      c.Query("status"),
		OverdueOnly: c.Query("overdue") == "true",
		Page:        params.Page,
		Limit:       params.Limit,
	}
	if raw := c.Query("vendor_id"); raw != "" {
		if vendorID, err := uuid.Parse(raw); err == nil {
			filter.VendorID = &vendorID
		}
	}

	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetInvoice returns one invoice with items, payments and derived fields
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceView}
// @Failure      404  {object}  response.Response
// @Router       /api/billing/invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	invoice, err := h.billingService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CreateInvoice creates a manual invoice
// @Summary      Create invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceView}
// @Failure      400      {object}  response.Response
// @Router       /api/billing/invoices [post]
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.billingService.CreateInvoice(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// DownloadPDF streams the invoice's PDF artifact
// @Summary      Download invoice PDF
// @Description  Returns the rendered invoice PDF, generating it on first request. Pass force=true to re-render.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id     path      string  true   "Invoice ID"
// @Param        force  query     bool    false  "Force a re-render"
// @Success      200    {file}    file
// @Failure      404    {object}  response.Response
// @Router       /api/billing/invoices/{id}/pdf [get]
func (h *BillingHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	path, invoice, err := h.billingService.EnsurePDF(c.Request.Context(), id, force)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, invoice.InvoiceNumber))
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// ListPayments returns the payment history of an invoice
// @Summary      List invoice payments
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Failure      404  {object}  response.Response
// @Router       /api/billing/invoices/{id}/payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	payments, err := h.billingService.ListPayments(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// RecordPayment records a payment against an invoice
// @Summary      Record payment
// @Description  Appends a payment; rejects amounts that are non-positive or exceed the remaining balance
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceView}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/billing/invoices/{id}/payments [post]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.billingService.RecordPayment(c.Request.Context(), id, middleware.CurrentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
