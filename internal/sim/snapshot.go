package sim

// BodyState is a serializable view of one body.
type BodyState struct {
	Position float64 `json:"position"`
	Extent   float64 `json:"extent"`
	Mass     float64 `json:"mass"`
	Velocity float64 `json:"velocity"`
}

// Snapshot is a serializable view of the whole engine, read by the
// streaming layer after each step.
type Snapshot struct {
	WallPosition    float64     `json:"wall_position"`
	TimeScale       float64     `json:"time_scale"`
	Bodies          []BodyState `json:"bodies"`
	TotalCollisions uint64      `json:"total_collisions"`
	WallCollisions  uint64      `json:"wall_collisions"`
	BodyCollisions  uint64      `json:"body_collisions"`
	PiDigits        string      `json:"pi_digits"`
	Complete        bool        `json:"complete"`
}

// Snapshot copies the current engine state into a value safe to hand to
// encoders and other goroutines.
func (e *Engine) Snapshot() Snapshot {
	bodies := make([]BodyState, len(e.bodies))
	for i, b := range e.bodies {
		bodies[i] = BodyState{
			Position: b.Position,
			Extent:   b.Extent,
			Mass:     b.Mass,
			Velocity: b.Velocity,
		}
	}
	return Snapshot{
		WallPosition:    e.wallPosition,
		TimeScale:       e.timeScale,
		Bodies:          bodies,
		TotalCollisions: e.totalCollisions,
		WallCollisions:  e.wallCollisions,
		BodyCollisions:  e.bodyCollisions,
		PiDigits:        e.PiDigits(),
		Complete:        e.IsComplete(),
	}
}
