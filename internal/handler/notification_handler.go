package handler

import (
	"net/http"
	"strconv"

	"github.com/chainsense/backend/internal/middleware"
	"github.com/chainsense/backend/internal/service"
	"github.com/chainsense/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", middleware.RequireRole(allRoles...), h.ListNotifications)
		notifications.PUT("/:id/read", middleware.RequireRole(allRoles...), h.MarkRead)
		notifications.PUT("/read-all", middleware.RequireRole(allRoles...), h.MarkAllRead)
	}
}

// ListNotifications returns the caller's notifications plus broadcasts
// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        unread  query     bool  false  "Only unread notifications"
// @Param        limit   query     int   false  "Max entries (default 50)"
// @Success      200  {object}  response.Response{data=[]model.Notification}
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), middleware.CurrentUserID(c), unreadOnly, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, notifications))
}

// MarkRead flags one notification as read
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}

// MarkAllRead flags every notification visible to the caller as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}
