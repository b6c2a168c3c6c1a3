package sim

import "time"

// Tuning constants for the 1D collision engine.

const (
	// MaxStepSeconds bounds a single Step. Elapsed-time values at or
	// above this (paused or throttled drivers) are discarded to avoid
	// integration instability.
	MaxStepSeconds = 0.1

	// DefaultTimeScale is applied when an engine is constructed with a
	// non-positive scale.
	DefaultTimeScale = 1.0

	// HistoryMaxAge is how long a collision event stays in the history
	// before eviction. The history only feeds transient visual effects.
	HistoryMaxAge = 2 * time.Second

	// HistoryMaxLen caps the history regardless of age.
	HistoryMaxLen = 256
)
