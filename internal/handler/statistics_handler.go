package handler

import (
	"net/http"
	"time"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	{
		stats.GET("/dashboard", middleware.RequireRole(staffRoles...), h.GetDashboard)
	}
}

// GetDashboard returns aggregated dashboard metrics
// @Summary      Dashboard statistics
// @Description  Returns stock, order, shipment and billing aggregates for a time bracket
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (RFC3339, defaults to first of month)"
// @Param        end_date    query     string  false  "End date (RFC3339, defaults to now)"
// @Success      200  {object}  response.Response{data=service.DashboardStatistics}
// @Failure      500  {object}  response.Response
// @Router       /api/statistics/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := now

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected RFC3339"))
			return
		}
		startDate = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected RFC3339"))
			return
		}
		endDate = parsed
	}

	stats, err := h.statisticsService.GetDashboard(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
