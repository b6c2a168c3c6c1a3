package run

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/billiardpi/backend/internal/config"
	"github.com/billiardpi/backend/internal/models"
	"github.com/billiardpi/backend/internal/sim"
)

// RunManager owns all live runs and drives each running one at the
// configured frame rate. It is the only component that touches Postgres
// and Redis on behalf of the simulation.
type RunManager struct {
	runs map[string]*Run
	mu   sync.RWMutex

	db  *sqlx.DB
	rdb *redis.Client
	cfg *config.Config

	// frameHook is invoked after every driver tick with a fresh
	// snapshot; the websocket layer installs its broadcaster here.
	frameHook func(token string, f Frame)
}

var (
	// Global run manager instance
	Manager *RunManager
)

// InitializeManager initializes the global run manager with DB, Redis and config.
func InitializeManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewRunManager(db, rdb, cfg)
	go Manager.StartExpiryChecker(ctx)
}

// NewRunManager creates a run manager.
func NewRunManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *RunManager {
	return &RunManager{
		runs: make(map[string]*Run),
		db:   db,
		rdb:  rdb,
		cfg:  cfg,
	}
}

// SetFrameHook installs the per-frame callback. Must be called before
// any run is started.
func (rm *RunManager) SetFrameHook(hook func(token string, f Frame)) {
	rm.frameHook = hook
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateRunID generates a unique run ID
func generateRunID() string {
	return "run_" + generateToken(8)
}

// CreateRun validates the parameters, builds the Galperin configuration
// and registers the run. The run is created PENDING; StartRun launches
// the driver.
func (rm *RunManager) CreateRun(p Params) (*Run, error) {
	if p.MassPower < 0 || p.MassPower > rm.cfg.MaxMassPower {
		return nil, fmt.Errorf("mass power must be between 0 and %d", rm.cfg.MaxMassPower)
	}
	if p.SmallMass <= 0 {
		return nil, errors.New("small mass must be positive")
	}
	if p.ApproachSpeed <= 0 {
		return nil, errors.New("approach speed must be positive")
	}
	if p.Speed <= 0 {
		p.Speed = rm.cfg.DefaultSpeed
	}

	engine, err := sim.NewGalperinEngine(p.MassPower, p.SmallMass, p.ApproachSpeed, p.TimeScale())
	if err != nil {
		return nil, err
	}

	expiry := time.Duration(rm.cfg.RunExpiryMinutes) * time.Minute
	r := newRun(generateRunID(), generateToken(16), p, engine, expiry)

	rm.mu.Lock()
	rm.runs[r.Token] = r
	rm.mu.Unlock()

	log.Printf("[RUN] Created run %s (token=%s, mass_power=%d)", r.ID, r.Token, p.MassPower)
	rm.saveRunToRedis(r)
	return r, nil
}

// GetRun returns the live run for a token.
func (rm *RunManager) GetRun(token string) (*Run, error) {
	rm.mu.RLock()
	r, ok := rm.runs[token]
	rm.mu.RUnlock()
	if !ok {
		return nil, errors.New("run not found")
	}
	return r, nil
}

// StartRun transitions a run to RUNNING and launches its driver
// goroutine if one is not already attached.
func (rm *RunManager) StartRun(token string) error {
	r, err := rm.GetRun(token)
	if err != nil {
		return err
	}

	if err := r.markRunning(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.stop == nil {
		stop := make(chan struct{})
		r.stop = stop
		go rm.drive(r, stop)
	}
	r.mu.Unlock()
	return nil
}

// drive is the external driver of the collision engine: one Step per
// tick with the frame interval in seconds, reading state back out after
// each step. It exits when the run completes or is cancelled. The stop
// channel is passed in so the loop never reads r.stop; the field is
// only touched under r.mu, and the exit path clears it so a later
// StartRun attaches a fresh driver.
func (rm *RunManager) drive(r *Run, stop chan struct{}) {
	defer func() {
		r.mu.Lock()
		if r.stop == stop {
			r.stop = nil
		}
		r.mu.Unlock()
	}()

	frameRate := rm.cfg.FrameRate
	if frameRate <= 0 {
		frameRate = 60
	}
	interval := time.Second / time.Duration(frameRate)
	dt := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[RUN] Driver started for %s at %d fps", r.ID, frameRate)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			done := r.Step(dt)

			if rm.frameHook != nil {
				rm.frameHook(r.Token, r.Snapshot())
			}

			if done {
				rm.finalize(r)
				return
			}
			if r.statusLocked() == StatusCancelled {
				return
			}
		}
	}
}

// finalize persists a completed run and announces it.
func (rm *RunManager) finalize(r *Run) {
	snap := r.Snapshot()
	log.Printf("[RUN] Run %s complete: %d collisions (π ≈ %s)",
		r.ID, snap.Engine.TotalCollisions, snap.Engine.PiDigits)

	rm.saveRunToRedis(r)
	if err := rm.persistRun(r, snap); err != nil {
		log.Printf("[DB] Failed to persist run %s: %v", r.ID, err)
	}
	rm.publishEvent(map[string]interface{}{
		"type":             "run_completed",
		"token":            r.Token,
		"total_collisions": snap.Engine.TotalCollisions,
		"pi_digits":        snap.Engine.PiDigits,
	})
}

// CancelRun stops the driver and marks the run cancelled.
func (rm *RunManager) CancelRun(token string) error {
	r, err := rm.GetRun(token)
	if err != nil {
		return err
	}
	r.markCancelled()

	r.mu.Lock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.mu.Unlock()

	rm.saveRunToRedis(r)
	return nil
}

// ResetRun rewinds a run to its initial conditions. Any attached driver
// is detached first, so a following StartRun always gets a live one.
func (rm *RunManager) ResetRun(token string) error {
	r, err := rm.GetRun(token)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.mu.Unlock()

	r.Reset()
	rm.saveRunToRedis(r)
	return nil
}

// ActiveRunCount returns the number of live runs held in memory.
func (rm *RunManager) ActiveRunCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.runs)
}

// persistRun writes the final state of a run to Postgres.
func (rm *RunManager) persistRun(r *Run, snap Frame) error {
	if rm.db == nil {
		return nil
	}

	largeMass := r.Params.SmallMass * math.Pow(100, float64(r.Params.MassPower))

	_, err := rm.db.Exec(`
		INSERT INTO simulation_runs
			(token, mass_power, small_mass, large_mass, approach_speed, time_scale,
			 total_collisions, wall_collisions, body_collisions, pi_digits,
			 status, created_at, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (token) DO UPDATE SET
			total_collisions = EXCLUDED.total_collisions,
			wall_collisions  = EXCLUDED.wall_collisions,
			body_collisions  = EXCLUDED.body_collisions,
			pi_digits        = EXCLUDED.pi_digits,
			status           = EXCLUDED.status,
			completed_at     = EXCLUDED.completed_at`,
		r.Token, r.Params.MassPower, r.Params.SmallMass, largeMass,
		r.Params.ApproachSpeed, r.Params.TimeScale(),
		int64(snap.Engine.TotalCollisions), int64(snap.Engine.WallCollisions),
		int64(snap.Engine.BodyCollisions), snap.Engine.PiDigits,
		string(snap.Status), r.CreatedAt, r.StartedAt, r.CompletedAt)
	return err
}

// ListCompletedRuns returns recent persisted runs, newest first.
func (rm *RunManager) ListCompletedRuns(limit int) ([]models.SimulationRun, error) {
	if rm.db == nil {
		return nil, errors.New("no database configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.SimulationRun
	err := rm.db.Select(&rows, `
		SELECT id, token, mass_power, small_mass, large_mass, approach_speed, time_scale,
		       total_collisions, wall_collisions, body_collisions, pi_digits,
		       status, created_at, started_at, completed_at
		FROM simulation_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	return rows, err
}

// PurgeRuns deletes persisted runs older than the given number of days.
// Admin only.
func (rm *RunManager) PurgeRuns(days int) (int64, error) {
	if rm.db == nil {
		return 0, errors.New("no database configured")
	}
	if days < 1 {
		days = 1
	}
	res, err := rm.db.Exec(`DELETE FROM simulation_runs WHERE created_at < NOW() - ($1 || ' days')::interval`, days)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	log.Printf("[RUN] Purged %d persisted runs", n)
	return n, nil
}

// saveRunToRedis caches the latest snapshot so state survives a brief
// disconnect and can be served without touching the live run.
func (rm *RunManager) saveRunToRedis(r *Run) {
	if rm.rdb == nil {
		return
	}
	ctx := context.Background()
	key := "run:" + r.Token + ":state"

	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		log.Printf("[RUN] Failed to marshal run %s: %v", r.ID, err)
		return
	}

	ttl := time.Duration(rm.cfg.RunSnapshotTTLSeconds) * time.Second
	if err := rm.rdb.SetEx(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[RUN] Failed to cache run %s: %v", r.ID, err)
	}
}

// LoadRunSnapshot reads the cached snapshot for a token, for serving
// state after the live run has been evicted.
func (rm *RunManager) LoadRunSnapshot(token string) (*Frame, error) {
	if rm.rdb == nil {
		return nil, errors.New("no redis configured")
	}
	ctx := context.Background()
	data, err := rm.rdb.Get(ctx, "run:"+token+":state").Bytes()
	if err != nil {
		return nil, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// publishEvent announces a run event on the run_events channel; the
// websocket layer subscribes and relays to connected clients.
func (rm *RunManager) publishEvent(payload map[string]interface{}) {
	if rm.rdb == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := rm.rdb.Publish(context.Background(), "run_events", data).Err(); err != nil {
		log.Printf("[RUN] Failed to publish run event: %v", err)
	}
}

// StartExpiryChecker evicts finished or abandoned runs from memory once
// they pass their expiry.
func (rm *RunManager) StartExpiryChecker(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.evictExpired()
		}
	}
}

func (rm *RunManager) evictExpired() {
	now := time.Now()
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for token, r := range rm.runs {
		status := r.statusLocked()
		if now.After(r.ExpiresAt) && status != StatusRunning {
			delete(rm.runs, token)
			log.Printf("[RUN] Evicted expired run %s (status=%s)", r.ID, status)
		}
	}
}

// GetConfig exposes the manager's config to collaborating layers.
func (rm *RunManager) GetConfig() *config.Config {
	return rm.cfg
}
