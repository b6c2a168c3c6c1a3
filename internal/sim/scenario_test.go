package sim

import "testing"

func TestNewGalperinEngineValidation(t *testing.T) {
	if _, err := NewGalperinEngine(-1, 1, 0.5, 1); err == nil {
		t.Error("expected error for negative mass power")
	}
	if _, err := NewGalperinEngine(1, 0, 0.5, 1); err == nil {
		t.Error("expected error for zero small mass")
	}
	if _, err := NewGalperinEngine(1, 1, 0, 1); err == nil {
		t.Error("expected error for zero approach speed")
	}
}

func TestGalperinEngineSetup(t *testing.T) {
	e, err := NewGalperinEngine(2, 1, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	bodies := e.Bodies()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(bodies))
	}
	small, large := bodies[0], bodies[1]
	if small.Velocity != 0 {
		t.Errorf("small body must start at rest, velocity=%g", small.Velocity)
	}
	if large.Velocity != -0.5 {
		t.Errorf("large body velocity = %g, want -0.5", large.Velocity)
	}
	if large.Mass != 10000 {
		t.Errorf("large mass = %g, want 100^2", large.Mass)
	}
	if e.IsComplete() {
		t.Error("fresh scenario must not be complete")
	}
}

// driveToCompletion steps the engine at a fixed cadence until the
// completion predicate holds, mirroring how the streaming driver runs.
func driveToCompletion(t *testing.T, e *Engine, dt float64, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if e.IsComplete() {
			return
		}
		e.Step(dt)
	}
	t.Fatalf("engine did not complete within %d steps (total collisions so far: %d)",
		maxSteps, e.TotalCollisions())
}

// The Galperin property: with a mass ratio of 100^k the total collision
// count equals the first k+1 significant digits of π.
func TestGalperinCollisionCounts(t *testing.T) {
	cases := []struct {
		k        int
		speed    float64
		dt       float64
		maxSteps int
		want     uint64
	}{
		{k: 0, speed: 0.5, dt: 0.002, maxSteps: 200000, want: 3},
		{k: 1, speed: 0.4, dt: 0.002, maxSteps: 500000, want: 31},
		{k: 2, speed: 0.3, dt: 0.0003, maxSteps: 5000000, want: 314},
	}

	for _, c := range cases {
		e, err := NewGalperinEngine(c.k, 1, c.speed, 1)
		if err != nil {
			t.Fatal(err)
		}
		driveToCompletion(t, e, c.dt, c.maxSteps)

		if got := e.TotalCollisions(); got != c.want {
			t.Errorf("k=%d: total collisions = %d, want %d (wall %d, body %d)",
				c.k, got, c.want, e.WallCollisions(), e.BodyCollisions())
		}
		if e.TotalCollisions() != e.WallCollisions()+e.BodyCollisions() {
			t.Errorf("k=%d: counter identity broken", c.k)
		}
	}
}

func TestGalperinDigitsMatchPi(t *testing.T) {
	e, err := NewGalperinEngine(1, 1, 0.4, 1)
	if err != nil {
		t.Fatal(err)
	}
	driveToCompletion(t, e, 0.002, 500000)

	if got := e.PiDigits(); got != "3.1" {
		t.Errorf("PiDigits after k=1 run = %q, want %q", got, "3.1")
	}
}
