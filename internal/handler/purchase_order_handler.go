package handler

import (
	"net/http"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/pkg/pagination"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PurchaseOrderHandler struct {
	orderService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(orderService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase-orders")
	{
		orders.GET("", middleware.RequireRole(allRoles...), h.ListOrders)
		orders.GET("/:id", middleware.RequireRole(allRoles...), h.GetOrder)
		orders.POST("", middleware.RequireRole(staffRoles...), h.CreateOrder)
		orders.PUT("/:id", middleware.RequireRole(allRoles...), h.Transition)
		orders.DELETE("/:id", middleware.RequireRole(adminRoles...), h.DeleteOrder)
	}
}

// ListOrders returns purchase orders, scoped to the caller's vendor when applicable
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by status (pending, completed, cancelled)"
// @Param        vendor_id  query     string  false  "Filter by vendor"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.PurchaseOrderListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("vendor_id"); raw != "" {
		if vendorID, err := uuid.Parse(raw); err == nil {
			filter.VendorID = &vendorID
		}
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserRole(c), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder returns one purchase order with line items
// @Summary      Get purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response{data=model.PurchaseOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserRole(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder creates a purchase order with line items
// @Summary      Create purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// Transition updates a purchase order's status and runs fulfillment on the
// first move into completed. A 200 with inventory_error or billing.error
// set means the status changed but a side effect failed.
// @Summary      Transition purchase order status
// @Description  Updates order status; first completion decrements stock and generates the invoice
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Purchase Order ID"
// @Param        payload  body      service.TransitionRequest  true  "Requested status"
// @Success      200      {object}  response.Response{data=service.TransitionResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Transition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.orderService.Transition(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserRole(c), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteOrder removes a non-completed purchase order
// @Summary      Delete purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
