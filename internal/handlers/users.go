package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
	"github.com/Deepakgauttam/twitter-clone/internal/social"
	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// GetUser handles GET /api/v1/users/:screen_name
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserPosts handles GET /api/v1/users/:screen_name/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	user, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	page := util.ParsePage(c.Query("page"))
	var posts []models.Post
	err = h.db.WithContext(c.Request.Context()).
		Preload("User").
		Preload("RetweetedStatus").
		Preload("RetweetedStatus.User").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Offset((page - 1) * 20).
		Limit(20).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page})
}

// GetFollowers handles GET /api/v1/users/:screen_name/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	user, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	users, err := h.engine.Followers(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to load followers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetFollowing handles GET /api/v1/users/:screen_name/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	user, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	users, err := h.engine.Friends(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to load following")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// FollowUser handles POST /api/v1/users/:screen_name/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	target, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	res, err := h.engine.Follow(c.Request.Context(), userID, target.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UnfollowUser handles DELETE /api/v1/users/:screen_name/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	target, err := h.engine.GetUserByScreenName(c.Request.Context(), c.Param("screen_name"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	res, err := h.engine.Unfollow(c.Request.Context(), userID, target.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// updateProfileRequest mirrors social.ProfileUpdate with JSON tags.
type updateProfileRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	Location           *string `json:"location"`
	URL                *string `json:"url"`
	ProfileBannerColor *string `json:"profile_banner_color"`
}

// UpdateProfile handles PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.engine.UpdateProfile(c.Request.Context(), userID, social.ProfileUpdate{
		Name:               req.Name,
		Description:        req.Description,
		Location:           req.Location,
		URL:                req.URL,
		ProfileBannerColor: req.ProfileBannerColor,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SuggestedUsers handles GET /api/v1/users/suggestions: accounts the caller
// does not follow yet, most followed first.
func (h *Handlers) SuggestedUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	following, err := h.engine.Friends(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}
	exclude := []string{userID}
	for _, u := range following {
		exclude = append(exclude, u.ID)
	}

	var users []models.User
	err = h.db.WithContext(c.Request.Context()).
		Where("id NOT IN ?", exclude).
		Order("followers_count DESC").
		Limit(25).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load suggestions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
