package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetNotifications returns the caller's notifications, newest first.
// @Summary		List notifications
// @Description	Polling clients pass ?after=<RFC3339> to fetch only newer entries.
// @Tags		Notifications
// @Security	BearerAuth
// @Param		after	query	string	false	"RFC3339 timestamp"
// @Param		limit	query	int		false	"Page size"
// @Success		200	{object}	map[string]interface{}
// @Router		/notifications [get]
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}

	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "after must be an RFC3339 timestamp")
			return
		}
		after = &t
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.service.List(c.Request.Context(), userID, after, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to get notifications")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to count notifications")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread_count": count})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to mark notification as read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "read": true})
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	n, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to mark notifications as read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": n})
}
