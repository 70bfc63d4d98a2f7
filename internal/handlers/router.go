package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Deepakgauttam/twitter-clone/internal/middleware"
)

// SetupRouter wires all routes and middleware.
func SetupRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("twitter-clone-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(h.auth)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authRequired, h.Me)
		}

		users := api.Group("/users")
		{
			users.PUT("/me", authRequired, h.UpdateProfile)
			users.GET("/suggestions", authRequired, h.SuggestedUsers)

			users.GET("/:screen_name", h.GetUser)
			users.GET("/:screen_name/posts", h.GetUserPosts)
			users.GET("/:screen_name/followers", h.GetFollowers)
			users.GET("/:screen_name/following", h.GetFollowing)
			users.POST("/:screen_name/follow", authRequired, h.FollowUser)
			users.DELETE("/:screen_name/follow", authRequired, h.UnfollowUser)
		}

		posts := api.Group("/posts")
		{
			posts.POST("", authRequired, h.CreatePost)
			posts.GET("/:id", h.GetPost)
			posts.GET("/:id/replies", h.GetReplies)
			posts.GET("/:id/likes", h.GetLikers)
			posts.GET("/:id/reposts", h.GetReposters)
			posts.POST("/:id/reply", authRequired, h.ReplyToPost)
			posts.POST("/:id/like", authRequired, h.LikePost)
			posts.DELETE("/:id/like", authRequired, h.UnlikePost)
			posts.POST("/:id/repost", authRequired, h.RepostPost)
			posts.DELETE("/:id/repost", authRequired, h.UnrepostPost)
		}

		tl := api.Group("/timeline")
		{
			tl.GET("/home", authRequired, h.HomeTimeline)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("/vapid-key", h.VAPIDKey)

			notifications.Use(authRequired)
			notifications.GET("", h.GetNotifications)
			notifications.POST("/subscribe", h.Subscribe)
			notifications.DELETE("/subscribe", h.Unsubscribe)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}

		search := api.Group("/search")
		{
			search.GET("/users", h.SearchUsers)
			search.GET("/posts", h.SearchPosts)
		}

		api.GET("/trends", h.Trends)
	}

	return r
}
