package sim

import (
	"math"
	"time"
)

// Engine owns an ordered set of bodies bounded on the low side by a
// fixed wall, and advances them in discrete steps under perfectly
// elastic collisions. It performs no I/O and holds no locks; a caller
// sharing an engine across goroutines must serialize Step/Reset/AddBody.
type Engine struct {
	wallPosition float64
	timeScale    float64
	bodies       []*Body

	totalCollisions uint64
	wallCollisions  uint64
	bodyCollisions  uint64

	history []CollisionEvent
}

// NewEngine creates an engine with the given reflecting wall position.
// A non-positive timeScale is coerced to DefaultTimeScale.
func NewEngine(wallPosition, timeScale float64) *Engine {
	if timeScale <= 0 {
		timeScale = DefaultTimeScale
	}
	return &Engine{
		wallPosition: wallPosition,
		timeScale:    timeScale,
		history:      make([]CollisionEvent, 0),
	}
}

// AddBody appends a body to the collection. Order is significant: the
// pairwise collision pass visits pairs in ascending insertion order.
// Overlap with already-added bodies is the caller's responsibility.
func (e *Engine) AddBody(b *Body) {
	e.bodies = append(e.bodies, b)
}

// Bodies returns the bodies in insertion order. The slice is a copy but
// the bodies themselves are live.
func (e *Engine) Bodies() []*Body {
	out := make([]*Body, len(e.bodies))
	copy(out, e.bodies)
	return out
}

// WallPosition returns the fixed reflecting boundary.
func (e *Engine) WallPosition() float64 { return e.wallPosition }

// TimeScale returns the multiplier applied to elapsed time.
func (e *Engine) TimeScale() float64 { return e.timeScale }

// SetTimeScale changes the time multiplier. Non-positive values are
// ignored.
func (e *Engine) SetTimeScale(scale float64) {
	if scale > 0 {
		e.timeScale = scale
	}
}

// TotalCollisions returns the count of all collisions since the last reset.
func (e *Engine) TotalCollisions() uint64 { return e.totalCollisions }

// WallCollisions returns the count of wall bounces since the last reset.
func (e *Engine) WallCollisions() uint64 { return e.wallCollisions }

// BodyCollisions returns the count of body-body impacts since the last reset.
func (e *Engine) BodyCollisions() uint64 { return e.bodyCollisions }

// History returns the recent collision events, oldest first.
func (e *Engine) History() []CollisionEvent {
	out := make([]CollisionEvent, len(e.history))
	copy(out, e.history)
	return out
}

// Reset zeroes all counters, clears the history and rewinds every body
// to its original state.
func (e *Engine) Reset() {
	e.totalCollisions = 0
	e.wallCollisions = 0
	e.bodyCollisions = 0
	e.history = e.history[:0]
	for _, b := range e.bodies {
		b.Reset()
	}
}

// Step advances the system by dt seconds of driver time. Non-finite,
// non-positive, or overly large dt (>= MaxStepSeconds) is discarded;
// a paused or throttled driver must not destabilize the integration.
//
// Order within a step: integrate every body, resolve wall collisions,
// then a single pass over unordered pairs in ascending index order.
// One detection pass per step means at most one collision per pair per
// frame even if overlap persists; later frames pick up the remainder.
func (e *Engine) Step(dt float64) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	if dt <= 0 || dt >= MaxStepSeconds {
		return
	}
	if len(e.bodies) == 0 {
		return
	}

	scaled := dt * e.timeScale
	for _, b := range e.bodies {
		b.Integrate(scaled)
	}

	for _, b := range e.bodies {
		e.collideWall(b)
	}

	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			a, b := e.bodies[i], e.bodies[j]
			if !spansOverlap(a, b) || !converging(a, b) {
				continue
			}
			e.collidePair(a, b)
		}
	}

	e.pruneHistory(time.Now())
}

// collideWall reflects a body moving into the wall: perfectly elastic,
// so the speed is preserved and only the sign flips. The position is
// clamped so the left edge sits exactly on the wall.
func (e *Engine) collideWall(b *Body) {
	if b.LeftEdge() > e.wallPosition || b.Velocity >= 0 {
		return
	}
	incoming := b.Velocity
	b.Velocity = -incoming
	b.Position = e.wallPosition
	e.record(WallCollision, BodySnapshot{Mass: b.Mass, Velocity: incoming})
	e.wallCollisions++
	e.totalCollisions++
}

// spansOverlap reports whether the two bodies' segments intersect.
func spansOverlap(a, b *Body) bool {
	return a.RightEdge() >= b.LeftEdge() && a.LeftEdge() <= b.RightEdge()
}

// converging reports whether the pair's relative motion closes the gap.
// The four clauses overlap by construction; the collision counts of the
// system were validated against exactly this predicate, so it stays as
// written even though it could be reduced.
func converging(a, b *Body) bool {
	switch {
	case a.Velocity > 0 && b.Velocity < a.Velocity:
		return true
	case b.Velocity < 0 && a.Velocity > b.Velocity:
		return true
	case a.Velocity > 0 && b.Velocity <= 0:
		return true
	case a.Velocity <= 0 && b.Velocity > 0:
		return true
	}
	return false
}

// collidePair applies the exact 1D elastic collision response, which
// conserves momentum and kinetic energy under real arithmetic:
//
//	v1' = ((m1 - m2)*v1 + 2*m2*v2) / (m1 + m2)
//	v2' = ((m2 - m1)*v2 + 2*m1*v1) / (m1 + m2)
//
// Both velocities are read before either is written. Residual overlap
// is then split proportionally to the other body's mass share, which
// keeps the pair's center of mass where it was and stops the same
// contact from re-triggering on later frames.
func (e *Engine) collidePair(a, b *Body) {
	m1, m2 := a.Mass, b.Mass
	v1, v2 := a.Velocity, b.Velocity
	total := m1 + m2

	a.Velocity = ((m1-m2)*v1 + 2*m2*v2) / total
	b.Velocity = ((m2-m1)*v2 + 2*m1*v1) / total

	if overlap := a.RightEdge() - b.LeftEdge(); overlap > 0 {
		a.Position -= overlap * (m2 / total)
		b.Position += overlap * (m1 / total)
	}

	e.record(BodyCollision,
		BodySnapshot{Mass: m1, Velocity: v1},
		BodySnapshot{Mass: m2, Velocity: v2})
	e.bodyCollisions++
	e.totalCollisions++
}

// IsComplete reports whether no further collision is physically
// possible. The derivation only holds for the two-body, one-wall
// configuration, so any other body count returns false. Left and right
// are re-identified by current position on every call.
func (e *Engine) IsComplete() bool {
	if len(e.bodies) != 2 {
		return false
	}
	left, right := e.bodies[0], e.bodies[1]
	if right.Position < left.Position {
		left, right = right, left
	}
	return left.Velocity >= 0 && right.Velocity >= left.Velocity
}

// PiDigits echoes the leading digits of π sized to the current total
// collision count. See DigitsOfPi.
func (e *Engine) PiDigits() string {
	return DigitsOfPi(e.totalCollisions)
}

func (e *Engine) record(kind EventKind, bodies ...BodySnapshot) {
	e.history = append(e.history, CollisionEvent{
		Kind:   kind,
		At:     time.Now(),
		Bodies: bodies,
	})
}

// pruneHistory evicts events older than HistoryMaxAge and trims the log
// to HistoryMaxLen. Bounding only; correctness never depends on the
// history contents.
func (e *Engine) pruneHistory(now time.Time) {
	cutoff := now.Add(-HistoryMaxAge)
	keep := 0
	for keep < len(e.history) && e.history[keep].At.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		e.history = append(e.history[:0], e.history[keep:]...)
	}
	if len(e.history) > HistoryMaxLen {
		e.history = append(e.history[:0], e.history[len(e.history)-HistoryMaxLen:]...)
	}
}
