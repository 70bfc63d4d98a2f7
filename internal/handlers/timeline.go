package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/util"
)

// HomeTimeline handles GET /api/v1/timeline/home?page=N
func (h *Handlers) HomeTimeline(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page := util.ParsePage(c.Query("page"))
	result, err := h.timelines.Home(c.Request.Context(), userID, page)
	if err != nil {
		util.RespondInternalError(c, "failed to load timeline")
		return
	}
	c.JSON(http.StatusOK, result)
}
