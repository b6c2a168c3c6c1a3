package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation settings
	FrameRate             int     // driver ticks per second
	RunExpiryMinutes      int     // idle runs evicted after this
	RunSnapshotTTLSeconds int     // Redis snapshot TTL
	DefaultSpeed          float64 // UI speed slider default (scale = speed / 5)
	MaxMassPower          int     // largest accepted 100^k exponent

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/billiardpi?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation settings
		FrameRate:             getEnvInt("FRAME_RATE", 60),
		RunExpiryMinutes:      getEnvInt("RUN_EXPIRY_MINUTES", 10),
		RunSnapshotTTLSeconds: getEnvInt("RUN_SNAPSHOT_TTL_SECONDS", 300),
		DefaultSpeed:          getEnvFloat("DEFAULT_SPEED", 5),
		MaxMassPower:          getEnvInt("MAX_MASS_POWER", 5),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
