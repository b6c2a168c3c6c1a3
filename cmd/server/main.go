package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/billiardpi/backend/internal/api"
	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/database"
	"github.com/billiardpi/backend/internal/migrations"
	"github.com/billiardpi/backend/internal/redis"
	"github.com/billiardpi/backend/internal/run"
	"github.com/billiardpi/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Initialize Run Manager with Redis and config
	run.InitializeManager(context.Background(), db, rdb, cfg)

	// Wire Redis and start run event subscriber in WS layer
	ws.SetRedisClient(rdb, cfg)
	ws.StartRunEventSubscriber(context.Background())

	// Stream driver frames to WebSocket watchers
	ws.AttachManager(run.Manager)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting BilliardPi server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
