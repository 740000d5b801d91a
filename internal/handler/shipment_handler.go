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

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

func (h *ShipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	shipments := router.Group("/api/shipments")
	{
		shipments.GET("", middleware.RequireRole(allRoles...), h.ListShipments)
		shipments.GET("/:id", middleware.RequireRole(allRoles...), h.GetShipment)
		shipments.POST("", middleware.RequireRole(staffRoles...), h.CreateShipment)
		shipments.PUT("/:id", middleware.RequireRole(staffRoles...), h.UpdateShipment)
	}
}

// ListShipments returns shipments, scoped to the caller's vendor when applicable
// @Summary      List shipments
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (pending, in_transit, delivered, delayed)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/shipments [get]
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.ShipmentListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	shipments, total, err := h.shipmentService.List(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserRole(c), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"shipments": shipments,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetShipment returns one shipment with its history trail
// @Summary      Get shipment
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  response.Response{data=model.Shipment}
// @Failure      404  {object}  response.Response
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	shipment, err := h.shipmentService.Get(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserRole(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

// CreateShipment registers a new shipment
// @Summary      Create shipment
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateShipmentRequest  true  "Create Shipment Payload"
// @Success      201      {object}  response.Response{data=model.Shipment}
// @Failure      400      {object}  response.Response
// @Router       /api/shipments [post]
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shipment))
}

// UpdateShipment updates status and location, geocoding the new location
// @Summary      Update shipment
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Shipment ID"
// @Param        payload  body      service.UpdateShipmentRequest  true  "Update Shipment Payload"
// @Success      200      {object}  response.Response{data=model.Shipment}
// @Failure      404      {object}  response.Response
// @Router       /api/shipments/{id} [put]
func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}
