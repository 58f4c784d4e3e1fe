package handler

import (
	"net/http"

	"caseflow/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the per-user notification inbox written by the
// dispatcher.
type NotificationHandler struct {
	store ports.NotificationRepository
}

func NewNotificationHandler(store ports.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.store.ListByUser(c.Request.Context(), actorFrom(c).ID, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.MarkRead(c.Request.Context(), id, actorFrom(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
