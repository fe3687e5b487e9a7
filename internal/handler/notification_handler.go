package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/perfume-store-api/pkg/notify"
	"github.com/noah-isme/perfume-store-api/pkg/response"
)

// NotificationHandler serves the transient mutation notifications.
type NotificationHandler struct {
	center *notify.Center
}

// NewNotificationHandler creates an instance of NotificationHandler.
func NewNotificationHandler(center *notify.Center) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// Recent godoc
// @Summary Recent notifications
// @Description Mutation outcomes that have not auto-dismissed yet
// @Tags notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/notifications [get]
func (h *NotificationHandler) Recent(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.center.Recent(), nil)
}
