package handlers

import (
	"net/http"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	Service *notification.Service
	Log     *zap.Logger
}

func (h *NotificationHandler) List(c *gin.Context) {
	items, unread, err := h.Service.List(c.Request.Context(), currentUserID(c), queryLimit(c))
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"notifications": nonNil(items),
		"unread":        unread,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := objectID(c, "notification")
	if !ok {
		return
	}
	if err := h.Service.MarkRead(c.Request.Context(), currentUserID(c), id); err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Notification not found")
			return
		}
		h.Log.Error("mark notification read", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Notification marked as read", nil)
}
