package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// GetNotifications handles GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	events, err := h.feed.List(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	unread := 0
	for _, e := range events {
		if !e.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": events, "unread_count": unread})
}

// Subscribe handles POST /api/v1/notifications/subscribe
func (h *Handlers) Subscribe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var sub models.PushSubscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	changed, err := h.feed.Subscribe(c.Request.Context(), userID, sub)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe handles DELETE /api/v1/notifications/subscribe
func (h *Handlers) Unsubscribe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	changed, err := h.feed.Unsubscribe(c.Request.Context(), userID, req.Endpoint)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	changed, err := h.feed.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondInternalError(c, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	count, err := h.feed.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// VAPIDKey handles GET /api/v1/notifications/vapid-key. Clients need the
// public key to create push subscriptions.
func (h *Handlers) VAPIDKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "public_key": h.vapidPublicKey})
}
