package run

import (
	"errors"
	"sync"
	"time"

	"github.com/billiardpi/backend/internal/sim"
)

// Status represents the lifecycle state of a simulation run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Params are the caller-supplied inputs for a run. Speed is the UI
// slider value; the engine time scale is Speed / 5 so the default
// slider position of 5 runs at real time.
type Params struct {
	MassPower     int     `json:"mass_power"`
	SmallMass     float64 `json:"small_mass"`
	ApproachSpeed float64 `json:"approach_speed"`
	Speed         float64 `json:"speed"`
}

// TimeScale maps the slider value to the engine multiplier.
func (p Params) TimeScale() float64 {
	return p.Speed / 5
}

// Frame is one streamed state update: the engine snapshot plus run
// bookkeeping.
type Frame struct {
	Token      string       `json:"token"`
	Status     Status       `json:"status"`
	FrameCount uint64       `json:"frame_count"`
	Engine     sim.Snapshot `json:"engine"`
}

// Run owns one collision engine. The engine itself is lock-free (it is
// single-threaded by contract), so the run serializes driver ticks,
// control messages and snapshot reads behind one lock.
type Run struct {
	ID     string
	Token  string
	Params Params

	engine *sim.Engine

	Status      Status
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ExpiresAt   time.Time

	frameCount uint64

	mu   sync.RWMutex
	stop chan struct{}
}

func newRun(id, token string, p Params, engine *sim.Engine, expiry time.Duration) *Run {
	return &Run{
		ID:        id,
		Token:     token,
		Params:    p,
		engine:    engine,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiry),
	}
}

// Step advances the engine by dt seconds of driver time and reports
// whether the run just finished.
func (r *Run) Step(dt float64) (done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Status != StatusRunning {
		return false
	}

	r.engine.Step(dt)
	r.frameCount++

	if r.engine.IsComplete() {
		r.Status = StatusCompleted
		now := time.Now()
		r.CompletedAt = &now
		return true
	}
	return false
}

// Snapshot returns the current frame view of the run.
func (r *Run) Snapshot() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Frame{
		Token:      r.Token,
		Status:     r.Status,
		FrameCount: r.frameCount,
		Engine:     r.engine.Snapshot(),
	}
}

// History returns the engine's recent collision events.
func (r *Run) History() []sim.CollisionEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engine.History()
}

// SetSpeed updates the time scale from a slider value. Non-positive
// values are rejected.
func (r *Run) SetSpeed(speed float64) error {
	if speed <= 0 {
		return errors.New("speed must be positive")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Params.Speed = speed
	r.engine.SetTimeScale(speed / 5)
	return nil
}

// Pause suspends the driver without losing state.
func (r *Run) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status != StatusRunning {
		return errors.New("run is not running")
	}
	r.Status = StatusPaused
	return nil
}

// Resume continues a paused run.
func (r *Run) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status != StatusPaused {
		return errors.New("run is not paused")
	}
	r.Status = StatusRunning
	return nil
}

// Reset rewinds the run to initial conditions. The run returns to
// PENDING; the driver keeps ticking but Step is a no-op until the run
// is started again.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.Reset()
	r.frameCount = 0
	r.Status = StatusPending
	r.StartedAt = nil
	r.CompletedAt = nil
}

func (r *Run) markRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.Status {
	case StatusPending:
		now := time.Now()
		r.StartedAt = &now
		r.Status = StatusRunning
		return nil
	case StatusPaused:
		r.Status = StatusRunning
		return nil
	case StatusRunning:
		return nil
	default:
		return errors.New("run already finished")
	}
}

func (r *Run) markCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status == StatusCompleted || r.Status == StatusCancelled {
		return
	}
	r.Status = StatusCancelled
	now := time.Now()
	r.CompletedAt = &now
}

func (r *Run) statusLocked() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}
