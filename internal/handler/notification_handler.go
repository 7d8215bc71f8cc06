package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications", middleware.RequireRole(model.RoleAdmin, model.RoleHR, model.RoleStaff))
	{
		notifications.GET("", h.ListNotifications)
		notifications.PUT("/:id/read", h.MarkRead)
		// PUT on the collection marks everything read; a static sibling of
		// :id would conflict in gin's route tree
		notifications.PUT("", h.MarkAllRead)
	}
}

// ListNotifications returns the caller's notifications
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread notifications"
// @Param        page    query     int   false  "Page number (default 1)"
// @Param        limit   query     int   false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	p := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.ListForUser(c.Request.Context(), userIDStr, unreadOnly, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch notifications"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"page":          p.Page,
		"limit":         p.Limit,
	}))
}

// MarkRead marks a single notification as read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	id := c.Param("id")

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userIDStr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked as read"))
}

// MarkAllRead marks all of the caller's notifications as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /notifications [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userIDStr); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "All notifications marked as read"))
}
