package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

type createPostRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreatePost handles POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	post, err := h.engine.CreatePost(c.Request.Context(), userID, req.Text)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// resolvePost maps the :id route param (public id) to the post document.
func (h *Handlers) resolvePost(c *gin.Context) (*models.Post, bool) {
	post, err := h.engine.GetPostByPublicID(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return nil, false
	}
	return post, true
}

// GetPost handles GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetReplies handles GET /api/v1/posts/:id/replies
func (h *Handlers) GetReplies(c *gin.Context) {
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	replies, err := h.engine.Replies(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to load replies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": replies})
}

// ReplyToPost handles POST /api/v1/posts/:id/reply
func (h *Handlers) ReplyToPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	reply, err := h.engine.Reply(c.Request.Context(), userID, post.ID, req.Text)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// LikePost handles POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	res, err := h.engine.Like(c.Request.Context(), userID, post.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UnlikePost handles DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	res, err := h.engine.Unlike(c.Request.Context(), userID, post.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RepostPost handles POST /api/v1/posts/:id/repost
func (h *Handlers) RepostPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	res, err := h.engine.Repost(c.Request.Context(), userID, post.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UnrepostPost handles DELETE /api/v1/posts/:id/repost
func (h *Handlers) UnrepostPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	res, err := h.engine.Unrepost(c.Request.Context(), userID, post.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetLikers handles GET /api/v1/posts/:id/likes
func (h *Handlers) GetLikers(c *gin.Context) {
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	users, err := h.engine.Likers(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to load likes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetReposters handles GET /api/v1/posts/:id/reposts
func (h *Handlers) GetReposters(c *gin.Context) {
	post, ok := h.resolvePost(c)
	if !ok {
		return
	}

	users, err := h.engine.Reposters(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to load reposts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
