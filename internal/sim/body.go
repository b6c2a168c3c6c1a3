package sim

import "fmt"

// Body is a rigid segment on a single axis: a point mass with extent.
// Position is the leading (left) edge. The position and velocity given
// at construction are kept so the body can be rewound by Reset.
type Body struct {
	Position float64 `json:"position"`
	Extent   float64 `json:"extent"`
	Mass     float64 `json:"mass"`
	Velocity float64 `json:"velocity"`

	homePosition float64
	homeVelocity float64
}

// NewBody builds a body from explicit initial state. A non-positive
// mass would make the elastic-collision denominator meaningless and a
// non-positive extent has no span to collide, so both are rejected
// rather than left to produce NaN/Inf downstream.
func NewBody(position, extent, mass, velocity float64) (*Body, error) {
	if extent <= 0 {
		return nil, fmt.Errorf("body extent must be positive, got %g", extent)
	}
	if mass <= 0 {
		return nil, fmt.Errorf("body mass must be positive, got %g", mass)
	}
	return &Body{
		Position:     position,
		Extent:       extent,
		Mass:         mass,
		Velocity:     velocity,
		homePosition: position,
		homeVelocity: velocity,
	}, nil
}

// Integrate advances the body by dt. The engine guarantees dt is finite
// and bounded; no validation happens here.
func (b *Body) Integrate(dt float64) {
	b.Position += b.Velocity * dt
}

// Reset restores the position and velocity captured at construction.
// Idempotent.
func (b *Body) Reset() {
	b.Position = b.homePosition
	b.Velocity = b.homeVelocity
}

// LeftEdge is the low-side edge of the body's span.
func (b *Body) LeftEdge() float64 { return b.Position }

// RightEdge is the high-side edge of the body's span.
func (b *Body) RightEdge() float64 { return b.Position + b.Extent }

// Center is the midpoint of the span.
func (b *Body) Center() float64 { return b.Position + b.Extent/2 }
