package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/models"
	"github.com/billiardpi/backend/internal/run"
	"github.com/billiardpi/backend/internal/ws"
)

// Login authenticates an operator and issues a JWT
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
			return
		}

		var op models.Operator
		if err := db.Get(&op, `SELECT id, name, password_hash, created_at, last_login FROM operators WHERE name=$1`, name); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if _, err := db.Exec(`UPDATE operators SET last_login=NOW() WHERE id=$1`, op.ID); err != nil {
			log.Printf("Failed to update last_login for operator %d: %v", op.ID, err)
		}

		exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
		claims := jwt.MapClaims{
			"operator_id": op.ID,
			"name":        op.Name,
			"exp":         exp.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    signed,
			"operator": gin.H{"id": op.ID, "name": op.Name},
		})
	}
}

// AuthMiddleware validates bearer JWT and sets operator_id in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		opIDf, ok := claims["operator_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("operator_id", int(opIDf))
		c.Next()
	}
}

// AdminStats returns live counters for the operator dashboard
func AdminStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var completed int
		if err := db.Get(&completed, `SELECT COUNT(*) FROM simulation_runs WHERE status='COMPLETED'`); err != nil {
			log.Printf("Failed to count completed runs: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"active_runs":    run.Manager.ActiveRunCount(),
			"completed_runs": completed,
			"watchers":       ws.RunHub.TotalWatchers(),
		})
	}
}

// AdminPurgeRuns deletes persisted runs older than the given number of days
func AdminPurgeRuns(c *gin.Context) {
	days := 30
	if v, ok := c.GetQuery("days"); ok {
		if _, err := fmt.Sscanf(v, "%d", &days); err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
	}

	deleted, err := run.Manager.PurgeRuns(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
