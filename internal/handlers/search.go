package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// SearchUsers handles GET /api/v1/search/users?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondBadRequest(c, "query parameter q is required")
		return
	}

	pattern := "%" + strings.ToLower(q) + "%"
	var users []models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("LOWER(screen_name) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern).
		Order("followers_count DESC").
		Limit(20).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchPosts handles GET /api/v1/search/posts?q=
func (h *Handlers) SearchPosts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondBadRequest(c, "query parameter q is required")
		return
	}

	pattern := "%" + strings.ToLower(q) + "%"
	var posts []models.Post
	err := h.db.WithContext(c.Request.Context()).
		Preload("User").
		Where("LOWER(text) LIKE ?", pattern).
		Order("created_at DESC").
		Limit(20).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Trends handles GET /api/v1/trends: the most used hashtags.
func (h *Handlers) Trends(c *gin.Context) {
	var tags []models.Hashtag
	err := h.db.WithContext(c.Request.Context()).
		Order("use_count DESC").
		Limit(10).
		Find(&tags).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load trends")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": tags})
}
