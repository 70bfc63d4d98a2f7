// Package handlers contains the HTTP layer: request parsing, auth glue and
// response shaping. All domain behavior lives in the social engine and its
// collaborators.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/auth"
	"github.com/Deepakgauttam/twitter-clone/internal/database"
	"github.com/Deepakgauttam/twitter-clone/internal/notify"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/timeline"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engine    *social.Engine
	feed      *notify.Feed
	timelines *timeline.Service
	auth      *auth.Service
	db        *gorm.DB

	vapidPublicKey string
}

// NewHandlers creates a new handlers instance
func NewHandlers(engine *social.Engine, feed *notify.Feed, timelines *timeline.Service, authService *auth.Service, db *gorm.DB) *Handlers {
	return &Handlers{
		engine:    engine,
		feed:      feed,
		timelines: timelines,
		auth:      authService,
		db:        db,
	}
}

// SetVAPIDPublicKey exposes the server's web push public key to clients.
func (h *Handlers) SetVAPIDPublicKey(key string) {
	h.vapidPublicKey = key
}

// Health reports service and database health.
func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if err := database.Health(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "twitter-clone-backend",
	})
}
