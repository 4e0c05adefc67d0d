package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/peochain/peochain-api/config"
	"github.com/peochain/peochain-api/controllers"
	"github.com/peochain/peochain-api/middleware"
	"github.com/peochain/peochain-api/realtime"
	"github.com/peochain/peochain-api/services"
	"github.com/peochain/peochain-api/utils"
)

// SetupRouter initializes the Gin router with all routes and middleware
func SetupRouter(cfg *config.Config, db *gorm.DB, hub *realtime.Hub, broadcaster realtime.Broadcaster, limiterStore middleware.Store) *gin.Engine {
	router := gin.New()

	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	waitlistService := services.NewWaitlistService(db, broadcaster)
	analyticsService := services.NewAnalyticsService(db)

	waitlistController := controllers.NewWaitlistController(waitlistService)
	analyticsController := controllers.NewAnalyticsController(analyticsService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		waitlist := api.Group("/waitlist")
		{
			waitlist.POST("", middleware.RateLimit(limiterStore, cfg.RateLimitRequests, cfg.RateLimitWindow), waitlistController.Join)
			waitlist.GET("/count", waitlistController.Count)
			waitlist.GET("/referral/:code", waitlistController.Referrer)
		}

		// Public view beacon; everything else under /analytics is key-gated
		api.POST("/analytics/view", analyticsController.RecordView)

		analytics := api.Group("/analytics", middleware.APIKeyMiddleware(cfg.AnalyticsAPIKey))
		{
			analytics.GET("/overview", analyticsController.Overview)
			analytics.GET("/daily-stats", analyticsController.DailyStats)
			analytics.GET("/regions", analyticsController.Regions)
			analytics.PUT("/regions", analyticsController.UpsertRegion)
			analytics.GET("/channels", analyticsController.Channels)
			analytics.PUT("/channels", analyticsController.UpsertChannel)
			analytics.GET("/entries", analyticsController.Entries)
			analytics.GET("/export", analyticsController.Export)
		}

		// Realtime analytics broadcast group (WebSocket upgrade)
		api.GET("/realtime", hub.ServeWS)
	}

	return router
}
