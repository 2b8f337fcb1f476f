package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/ai"
	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/controllers"
	"github.com/clubdev/clubdev/middleware"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, hub *realtime.Hub, aiSvc *ai.Service) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	entryController := controllers.NewEntryController(db)
	likeController := controllers.NewLikeController(db, hub)
	commentController := controllers.NewCommentController(db, hub)
	followController := controllers.NewFollowController(db, hub)
	notificationController := controllers.NewNotificationController(db, hub)
	realtimeController := controllers.NewRealtimeController(hub)
	mindMapController := controllers.NewMindMapController(db)
	aiController := controllers.NewAIController(db, aiSvc)
	analyticsController := controllers.NewAnalyticsController(db)
	gamificationController := controllers.NewGamificationController(db)
	subscriptionController := controllers.NewSubscriptionController(db)
	integrationController := controllers.NewIntegrationController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.GET("/animation-preference", middleware.AuthRequired(), authController.GetAnimationPreference)
	authGroup.PUT("/animation-preference", middleware.AuthRequired(), authController.SetAnimationPreference)

	// Public reads carry an optional identity so liked_by_me and hidden
	// comment visibility resolve for signed-in viewers.
	entriesGroup := api.Group("/entries")
	entriesGroup.GET("", middleware.AuthOptional(), entryController.ListEntries)
	entriesGroup.GET("/:id", middleware.AuthOptional(), entryController.GetEntry)
	entriesGroup.GET("/:id/comments", middleware.AuthOptional(), commentController.ListComments)
	api.GET("/entries/:id/stats", analyticsController.GetEntryStats)

	api.GET("/stats", middleware.AuthOptional(), analyticsController.GetStats)
	api.GET("/topics/clusters", analyticsController.GetTopicClusters)
	api.GET("/leaderboard", gamificationController.GetLeaderboard)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/entries", middleware.AuthOptional(), entryController.ListUserEntries)
	api.GET("/users/:id/followers", followController.ListFollowers)
	api.GET("/users/:id/following", followController.ListFollowing)
	api.GET("/users/:id/reputation", gamificationController.GetReputation)

	// Stripe calls this without a bearer token; the payload is verified
	// against the webhook signing secret instead.
	api.POST("/subscriptions/webhook", subscriptionController.Webhook)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/users", authController.ListUsers)
	protected.POST("/upload", entryController.UploadAttachment)

	protected.POST("/entries", entryController.CreateEntry)
	protected.PUT("/entries/:id", entryController.UpdateEntry)
	protected.DELETE("/entries/:id", entryController.DeleteEntry)
	protected.POST("/entries/:id/pin", entryController.TogglePin)
	protected.GET("/entries/recent", entryController.ListRecentEntries)
	protected.GET("/users/me/entries", entryController.ListMyEntries)
	protected.GET("/search", entryController.SearchEntries)

	protected.POST("/entries/:id/like", likeController.LikeEntry)
	protected.DELETE("/entries/:id/like", likeController.UnlikeEntry)

	protected.POST("/entries/:id/comments", commentController.CreateComment)
	protected.POST("/comments/:commentId/approve", commentController.ApproveComment)
	protected.DELETE("/comments/:commentId", commentController.DeleteComment)

	protected.POST("/users/:id/follow", followController.FollowUser)
	protected.DELETE("/users/:id/follow", followController.UnfollowUser)

	protected.GET("/notifications", notificationController.ListNotifications)
	protected.POST("/notifications", notificationController.CreateNotification)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)
	protected.POST("/notifications/read-all", notificationController.MarkAllRead)

	// SSE stream stays outside the rate limiter, it is a single
	// long-lived request per client.
	api.GET("/realtime/stream", middleware.AuthRequired(), realtimeController.Stream)
	protected.POST("/realtime/join", realtimeController.JoinRoom)
	protected.POST("/realtime/leave", realtimeController.LeaveRoom)

	protected.POST("/mindmaps", mindMapController.CreateMindMap)
	protected.GET("/mindmaps", mindMapController.ListMindMaps)
	protected.GET("/mindmaps/:id", mindMapController.GetMindMap)
	protected.PUT("/mindmaps/:id", mindMapController.UpdateMindMap)
	protected.DELETE("/mindmaps/:id", mindMapController.DeleteMindMap)
	protected.POST("/mindmaps/parse-outline", mindMapController.ParseOutline)

	protected.POST("/ai/suggest", aiController.Suggest)
	protected.POST("/ai/summarize", aiController.Summarize)
	protected.POST("/ai/improve", aiController.ImproveWriting)
	protected.POST("/ai/review-code", aiController.ReviewCode)
	protected.POST("/ai/generate-code", aiController.GenerateCode)
	protected.POST("/ai/mindmap-outline", aiController.MindMapOutline)
	protected.POST("/ai/chat", aiController.Chat)
	protected.GET("/ai/journal-prompt", aiController.JournalPrompt)

	protected.GET("/recommendations", analyticsController.GetRecommendations)
	protected.POST("/entries/:id/flag", analyticsController.FlagEntry)
	protected.GET("/gamification/me", gamificationController.GetMyStats)
	protected.POST("/users/:id/reputation", gamificationController.AdjustReputation)

	protected.POST("/subscriptions/checkout", subscriptionController.CreateCheckoutSession)
	protected.GET("/subscriptions/me", subscriptionController.GetMySubscription)
	protected.POST("/subscriptions/downgrade", subscriptionController.Downgrade)

	protected.GET("/github/repositories", integrationController.ListRepositories)
	protected.GET("/github/commits", integrationController.ListCommits)
	protected.POST("/entries/:id/export/notion", integrationController.ExportEntryToNotion)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r
}
