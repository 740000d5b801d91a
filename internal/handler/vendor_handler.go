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

type VendorHandler struct {
	vendorService service.VendorService
}

func NewVendorHandler(vendorService service.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/api/vendors")
	{
		vendors.GET("", middleware.RequireRole(staffRoles...), h.ListVendors)
		vendors.GET("/me", middleware.RequireRole("vendor"), h.MyVendor)
		vendors.GET("/:id", middleware.RequireRole(staffRoles...), h.GetVendor)
		vendors.POST("", middleware.RequireRole(adminRoles...), h.CreateVendor)
		vendors.PUT("/:id", middleware.RequireRole(adminRoles...), h.UpdateVendor)
		vendors.DELETE("/:id", middleware.RequireRole(adminRoles...), h.DeleteVendor)
	}
}

// ListVendors returns a paginated vendor listing
// @Summary      List vendors
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (active, inactive)"
// @Param        search  query     string  false  "Search by name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.VendorListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	vendors, total, err := h.vendorService.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"vendors": vendors,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// MyVendor resolves the vendor record linked to the authenticated account
// @Summary      Get own vendor record
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Vendor}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/me [get]
func (h *VendorHandler) MyVendor(c *gin.Context) {
	vendor, err := h.vendorService.VendorForUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// GetVendor returns one vendor
// @Summary      Get vendor
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=model.Vendor}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	vendor, err := h.vendorService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// CreateVendor adds a new vendor
// @Summary      Create vendor
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVendorRequest  true  "Create Vendor Payload"
// @Success      201      {object}  response.Response{data=model.Vendor}
// @Failure      400      {object}  response.Response
// @Router       /api/vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// UpdateVendor updates a vendor, including its portal account link
// @Summary      Update vendor
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Vendor ID"
// @Param        payload  body      service.UpdateVendorRequest  true  "Update Vendor Payload"
// @Success      200      {object}  response.Response{data=model.Vendor}
// @Failure      404      {object}  response.Response
// @Router       /api/vendors/{id} [put]
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendor, err := h.vendorService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// DeleteVendor removes a vendor
// @Summary      Delete vendor
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [delete]
func (h *VendorHandler) DeleteVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.vendorService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
