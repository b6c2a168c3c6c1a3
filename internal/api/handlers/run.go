package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/run"
)

// CreateRunRequest is the body for POST /runs.
type CreateRunRequest struct {
	MassPower     int     `json:"mass_power"`
	SmallMass     float64 `json:"small_mass"`
	ApproachSpeed float64 `json:"approach_speed"`
	Speed         float64 `json:"speed"`
	AutoStart     bool    `json:"auto_start"`
}

// CreateRun creates a new simulation run and optionally starts the
// driver immediately.
func CreateRun(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRunRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		// Coerce absent inputs to the canonical scenario defaults.
		if req.SmallMass == 0 {
			req.SmallMass = 1
		}
		if req.ApproachSpeed == 0 {
			req.ApproachSpeed = 0.5
		}
		if req.Speed == 0 {
			req.Speed = cfg.DefaultSpeed
		}

		r, err := run.Manager.CreateRun(run.Params{
			MassPower:     req.MassPower,
			SmallMass:     req.SmallMass,
			ApproachSpeed: req.ApproachSpeed,
			Speed:         req.Speed,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.AutoStart {
			if err := run.Manager.StartRun(r.Token); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": r.Token,
			"frame": r.Snapshot(),
		})
	}
}

// GetRunState returns the current snapshot for a run, falling back to
// the Redis cache when the live run has been evicted.
func GetRunState(c *gin.Context) {
	token := c.Param("token")

	if r, err := run.Manager.GetRun(token); err == nil {
		c.JSON(http.StatusOK, gin.H{"frame": r.Snapshot()})
		return
	}

	if frame, err := run.Manager.LoadRunSnapshot(token); err == nil {
		c.JSON(http.StatusOK, gin.H{"frame": frame, "cached": true})
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
}

// StartRun transitions a run to RUNNING.
func StartRun(c *gin.Context) {
	token := c.Param("token")
	if err := run.Manager.StartRun(token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// ResetRun rewinds a run to its initial conditions.
func ResetRun(c *gin.Context) {
	token := c.Param("token")
	if err := run.Manager.ResetRun(token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// CancelRun stops a run's driver and marks it cancelled.
func CancelRun(c *gin.Context) {
	token := c.Param("token")
	if err := run.Manager.CancelRun(token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// ListRuns returns recent persisted runs.
func ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	rows, err := run.Manager.ListCompletedRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": rows})
}
