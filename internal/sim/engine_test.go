package sim

import (
	"math"
	"testing"
)

const tolerance = 1e-9

// setupPair builds an engine whose wall is far away so only the
// body-body interaction matters.
func setupPair(t *testing.T, a, b *Body) *Engine {
	t.Helper()
	e := NewEngine(-1000, 1)
	e.AddBody(a)
	e.AddBody(b)
	return e
}

func TestStepDiscardsBadDt(t *testing.T) {
	e := NewEngine(0, 1)
	e.AddBody(mustBody(t, 5, 1, 1, -2))

	for _, dt := range []float64{0, -0.01, 0.1, 0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		e.Step(dt)
	}

	b := e.Bodies()[0]
	if b.Position != 5 || b.Velocity != -2 {
		t.Errorf("bad dt moved the body: position=%g velocity=%g", b.Position, b.Velocity)
	}
	if e.TotalCollisions() != 0 {
		t.Errorf("bad dt produced collisions: %d", e.TotalCollisions())
	}
}

func TestStepWithNoBodiesIsNoOp(t *testing.T) {
	e := NewEngine(0, 1)
	e.Step(0.016)
	if e.TotalCollisions() != 0 {
		t.Errorf("empty engine counted collisions: %d", e.TotalCollisions())
	}
}

func TestWallReflection(t *testing.T) {
	e := NewEngine(0, 1)
	e.AddBody(mustBody(t, 0.1, 1, 1, -3))

	e.Step(0.05) // carries the body through the wall

	b := e.Bodies()[0]
	if b.Velocity != 3 {
		t.Errorf("velocity after bounce = %g, want 3 (sign flip, magnitude kept)", b.Velocity)
	}
	if b.LeftEdge() != 0 {
		t.Errorf("left edge after bounce = %g, want exactly wall position 0", b.LeftEdge())
	}
	if e.WallCollisions() != 1 || e.BodyCollisions() != 0 || e.TotalCollisions() != 1 {
		t.Errorf("counters = total %d wall %d body %d, want 1/1/0",
			e.TotalCollisions(), e.WallCollisions(), e.BodyCollisions())
	}
}

func TestWallIgnoresRetreatingBody(t *testing.T) {
	e := NewEngine(0, 1)
	e.AddBody(mustBody(t, -0.5, 1, 1, 2)) // overlapping the wall but moving away

	e.Step(0.01)

	if e.WallCollisions() != 0 {
		t.Errorf("retreating body bounced: wall collisions = %d", e.WallCollisions())
	}
}

func TestElasticCollisionConservesMomentumAndEnergy(t *testing.T) {
	a := mustBody(t, 0, 1, 2, 1)
	b := mustBody(t, 1.005, 1, 3, -1)
	e := setupPair(t, a, b)

	momentumBefore := a.Mass*a.Velocity + b.Mass*b.Velocity
	energyBefore := a.Mass*a.Velocity*a.Velocity + b.Mass*b.Velocity*b.Velocity

	e.Step(0.01)

	if e.BodyCollisions() != 1 {
		t.Fatalf("expected one body collision, got %d", e.BodyCollisions())
	}

	momentumAfter := a.Mass*a.Velocity + b.Mass*b.Velocity
	energyAfter := a.Mass*a.Velocity*a.Velocity + b.Mass*b.Velocity*b.Velocity

	if math.Abs(momentumAfter-momentumBefore) > tolerance {
		t.Errorf("momentum not conserved: before=%g after=%g", momentumBefore, momentumAfter)
	}
	if math.Abs(energyAfter-energyBefore) > tolerance {
		t.Errorf("kinetic energy not conserved: before=%g after=%g", energyBefore, energyAfter)
	}
}

func TestCollisionSeparationKeepsCenterOfMass(t *testing.T) {
	a := mustBody(t, 0, 1, 2, 2)
	b := mustBody(t, 1.01, 1, 5, -2)
	e := setupPair(t, a, b)

	e.Step(0.01)

	if e.BodyCollisions() != 1 {
		t.Fatalf("expected one body collision, got %d", e.BodyCollisions())
	}
	if overlap := a.RightEdge() - b.LeftEdge(); overlap > tolerance {
		t.Errorf("residual overlap %g after resolution", overlap)
	}
}

func TestEqualMassesSwapVelocities(t *testing.T) {
	a := mustBody(t, 0, 1, 1, 3)
	b := mustBody(t, 1.02, 1, 1, -1)
	e := setupPair(t, a, b)

	e.Step(0.01)

	if math.Abs(a.Velocity-(-1)) > tolerance || math.Abs(b.Velocity-3) > tolerance {
		t.Errorf("equal-mass collision should swap velocities: a=%g b=%g", a.Velocity, b.Velocity)
	}
}

func TestOnePairCollisionPerStep(t *testing.T) {
	// Deep overlap cannot be counted twice within the same step.
	a := mustBody(t, 0, 1, 1, 5)
	b := mustBody(t, 1.02, 1, 1, -5)
	e := setupPair(t, a, b)

	e.Step(0.01)

	if e.BodyCollisions() != 1 {
		t.Errorf("pair collided %d times in one step, want 1", e.BodyCollisions())
	}
}

func TestCounterIdentityAcrossRun(t *testing.T) {
	e, err := NewGalperinEngine(1, 1, 0.4, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50000 && !e.IsComplete(); i++ {
		e.Step(0.002)
		if e.TotalCollisions() != e.WallCollisions()+e.BodyCollisions() {
			t.Fatalf("counter identity broken at step %d: total=%d wall=%d body=%d",
				i, e.TotalCollisions(), e.WallCollisions(), e.BodyCollisions())
		}
	}
}

func TestNonInterpenetrationAfterEveryStep(t *testing.T) {
	e, err := NewGalperinEngine(1, 1, 0.4, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50000 && !e.IsComplete(); i++ {
		e.Step(0.002)
		bodies := e.Bodies()
		for j := 0; j < len(bodies); j++ {
			if bodies[j].LeftEdge() < e.WallPosition()-tolerance {
				t.Fatalf("step %d: body %d penetrates the wall: left edge %g", i, j, bodies[j].LeftEdge())
			}
			for k := j + 1; k < len(bodies); k++ {
				lo, hi := bodies[j], bodies[k]
				if hi.Position < lo.Position {
					lo, hi = hi, lo
				}
				if overlap := lo.RightEdge() - hi.LeftEdge(); overlap > tolerance {
					t.Fatalf("step %d: bodies %d/%d overlap by %g", i, j, k, overlap)
				}
			}
		}
	}
}

func TestIsCompleteRequiresExactlyTwoBodies(t *testing.T) {
	e := NewEngine(0, 1)
	if e.IsComplete() {
		t.Error("empty engine reported complete")
	}

	e.AddBody(mustBody(t, 1, 1, 1, 1))
	if e.IsComplete() {
		t.Error("one-body engine reported complete")
	}

	e.AddBody(mustBody(t, 3, 1, 1, 2))
	if !e.IsComplete() {
		t.Error("two diverging right-moving bodies should be complete")
	}

	e.AddBody(mustBody(t, 6, 1, 1, 3))
	if e.IsComplete() {
		t.Error("three-body engine must report false regardless of state")
	}
}

func TestIsCompleteReordersByPosition(t *testing.T) {
	e := NewEngine(0, 1)
	// Added in reverse spatial order: the predicate must sort by
	// current position, not insertion order.
	e.AddBody(mustBody(t, 5, 1, 1, 3)) // spatially right, faster
	e.AddBody(mustBody(t, 1, 1, 1, 1)) // spatially left, slower
	if !e.IsComplete() {
		t.Error("diverging pair should be complete regardless of insertion order")
	}

	e2 := NewEngine(0, 1)
	e2.AddBody(mustBody(t, 5, 1, 1, 1)) // right, slower: still converging
	e2.AddBody(mustBody(t, 1, 1, 1, 3))
	if e2.IsComplete() {
		t.Error("right body slower than left body cannot be complete")
	}
}

func TestResetReplayIsDeterministic(t *testing.T) {
	e, err := NewGalperinEngine(1, 1, 0.4, 1)
	if err != nil {
		t.Fatal(err)
	}

	run := func() ([]uint64, []float64) {
		counters := make([]uint64, 0, 2000)
		for i := 0; i < 2000; i++ {
			e.Step(0.002)
			counters = append(counters, e.TotalCollisions())
		}
		positions := make([]float64, 0, 2)
		for _, b := range e.Bodies() {
			positions = append(positions, b.Position)
		}
		return counters, positions
	}

	counters1, positions1 := run()
	e.Reset()
	if e.TotalCollisions() != 0 || len(e.History()) != 0 {
		t.Fatal("reset did not clear counters and history")
	}
	counters2, positions2 := run()

	for i := range counters1 {
		if counters1[i] != counters2[i] {
			t.Fatalf("counter trajectory diverged at step %d: %d vs %d", i, counters1[i], counters2[i])
		}
	}
	for i := range positions1 {
		if positions1[i] != positions2[i] {
			t.Fatalf("body %d position diverged: %g vs %g", i, positions1[i], positions2[i])
		}
	}
}

func TestHistoryRecordsCollisionSnapshots(t *testing.T) {
	e := NewEngine(0, 1)
	e.AddBody(mustBody(t, 0.1, 1, 4, -3))

	e.Step(0.05)

	history := e.History()
	if len(history) != 1 {
		t.Fatalf("expected one event, got %d", len(history))
	}
	ev := history[0]
	if ev.Kind != WallCollision {
		t.Errorf("event kind = %q, want %q", ev.Kind, WallCollision)
	}
	if len(ev.Bodies) != 1 || ev.Bodies[0].Mass != 4 || ev.Bodies[0].Velocity != -3 {
		t.Errorf("event snapshot = %+v, want mass 4 velocity -3 (pre-bounce)", ev.Bodies)
	}
}

func TestTimeScaleScalesIntegration(t *testing.T) {
	e := NewEngine(-100, 2)
	e.AddBody(mustBody(t, 0, 1, 1, 1))

	e.Step(0.05)

	if got := e.Bodies()[0].Position; math.Abs(got-0.1) > tolerance {
		t.Errorf("position = %g, want 0.1 (dt doubled by time scale)", got)
	}

	e.SetTimeScale(-1) // ignored
	if e.TimeScale() != 2 {
		t.Errorf("non-positive SetTimeScale must be ignored, got %g", e.TimeScale())
	}
}
