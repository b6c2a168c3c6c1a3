package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/billiardpi/backend/internal/api/handlers"
	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	// CORS middleware for React development server
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// No-cache middleware for development so the viewer never renders
	// a stale snapshot
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Operator auth
		v1.POST("/auth/login", handlers.Login(db, cfg))

		// Run endpoints
		runs := v1.Group("/runs")
		{
			runs.POST("", handlers.CreateRun(cfg))
			runs.GET("", handlers.ListRuns)
			runs.GET("/:token", handlers.GetRunState)
			runs.POST("/:token/start", handlers.StartRun)
			runs.POST("/:token/reset", handlers.ResetRun)
			runs.POST("/:token/cancel", handlers.CancelRun)
			runs.GET("/:token/ws", ws.HandleWebSocket)
		}

		// Admin endpoints (operator JWT required)
		admin := v1.Group("/admin")
		admin.Use(handlers.AuthMiddleware(cfg))
		{
			admin.GET("/stats", handlers.AdminStats(db))
			admin.DELETE("/runs", handlers.AdminPurgeRuns)
		}
	}
}
