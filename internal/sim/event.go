package sim

import "time"

// EventKind distinguishes wall bounces from body-body impacts.
type EventKind string

const (
	WallCollision EventKind = "wall"
	BodyCollision EventKind = "body"
)

// BodySnapshot freezes the mass and velocity of a body at the moment of
// a collision. Display only; resolution never reads these back.
type BodySnapshot struct {
	Mass     float64 `json:"mass"`
	Velocity float64 `json:"velocity"`
}

// CollisionEvent records a single collision for transient visual
// effects (flash/sound cues on the client).
type CollisionEvent struct {
	Kind   EventKind      `json:"kind"`
	At     time.Time      `json:"at"`
	Bodies []BodySnapshot `json:"bodies"`
}
