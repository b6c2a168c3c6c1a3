package sim

import (
	"fmt"
	"math"
)

// Galperin's construction: a small body at rest next to the wall and a
// body 100^k times heavier approaching it. Driven to completion, the
// total collision count spells out the first k+1 digits of π.

const (
	scenarioWall        = 0.0
	scenarioSmallStart  = 2.0
	scenarioLargeStart  = 6.0
	scenarioSmallExtent = 1.0
	scenarioLargeExtent = 1.0
)

// NewGalperinEngine builds the canonical power-of-100 configuration:
// wall at 0, a small body of mass smallMass at rest, and a large body
// of mass smallMass*100^k approaching at approachSpeed (> 0, applied
// as a negative velocity). The small body is added first, so it is
// body A of every pairwise check.
func NewGalperinEngine(k int, smallMass, approachSpeed, timeScale float64) (*Engine, error) {
	if k < 0 {
		return nil, fmt.Errorf("mass power must be non-negative, got %d", k)
	}
	if smallMass <= 0 {
		return nil, fmt.Errorf("small mass must be positive, got %g", smallMass)
	}
	if approachSpeed <= 0 {
		return nil, fmt.Errorf("approach speed must be positive, got %g", approachSpeed)
	}

	small, err := NewBody(scenarioSmallStart, scenarioSmallExtent, smallMass, 0)
	if err != nil {
		return nil, err
	}
	large, err := NewBody(scenarioLargeStart, scenarioLargeExtent, smallMass*math.Pow(100, float64(k)), -approachSpeed)
	if err != nil {
		return nil, err
	}

	e := NewEngine(scenarioWall, timeScale)
	e.AddBody(small)
	e.AddBody(large)
	return e, nil
}
