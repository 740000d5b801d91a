package handler

import (
	"net/http"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/pkg/pagination"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("", middleware.RequireRole(allRoles...), h.ListItems)
		inventory.GET("/:id", middleware.RequireRole(allRoles...), h.GetItem)
		inventory.POST("", middleware.RequireRole(staffRoles...), h.CreateItem)
		inventory.PUT("/:id", middleware.RequireRole(staffRoles...), h.UpdateItem)
		inventory.DELETE("/:id", middleware.RequireRole(adminRoles...), h.DeleteItem)
		inventory.POST("/adjust", middleware.RequireRole(staffRoles...), h.Adjust)
	}
}

// ListItems returns a paginated inventory listing
// @Summary      List inventory items
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        category   query     string  false  "Filter by category"
// @Param        low_stock  query     bool    false  "Only items at or below their reorder threshold"
// @Param        search     query     string  false  "Search by name"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/inventory [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.InventoryListFilter{
		Category: c.Query("category"),
		LowStock: c.Query("low_stock") == "true",
		Search:   c.Query("search"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetItem returns one inventory item
// @Summary      Get inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=model.InventoryItem}
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateItem adds a new inventory item
// @Summary      Create inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=model.InventoryItem}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem updates an inventory item
// @Summary      Update inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Update Item Payload"
// @Success      200      {object}  response.Response{data=model.InventoryItem}
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an inventory item
// @Summary      Delete inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.inventoryService.DeleteItem(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// Adjust applies a batch of stock adjustments
// @Summary      Adjust stock levels
// @Description  Applies a batch of increment/decrement adjustments in one transaction
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      object  true  "Adjustment entries"
// @Success      200      {object}  response.Response{data=[]service.AdjustmentResult}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req struct {
		Entries []service.AdjustmentEntry `json:"entries" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	results, err := h.inventoryService.ApplyDelta(c.Request.Context(), req.Entries)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
