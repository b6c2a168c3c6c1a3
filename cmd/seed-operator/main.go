package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/database"
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

	// Seed operator account
	name := os.Getenv("OPERATOR_NAME")
	if name == "" {
		name = "operator"
		log.Printf("Using default operator name: %s", name)
	}

	password := os.Getenv("OPERATOR_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Printf("WARNING: Using default operator password. Set OPERATOR_PASSWORD env var in production!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO operators (name, password_hash, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		name, string(hash))
	if err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("✓ Operator account created/updated successfully")
	log.Printf("  Name: %s", name)
	log.Println("\nYou can now login at /api/v1/auth/login with these credentials")
}
