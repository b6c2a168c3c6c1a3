package models

import (
	"database/sql"
	"time"
)

// SimulationRun is the persisted record of a finished (or cancelled)
// billiard-π run.
type SimulationRun struct {
	ID              int          `db:"id" json:"id"`
	Token           string       `db:"token" json:"token"`
	MassPower       int          `db:"mass_power" json:"mass_power"`
	SmallMass       float64      `db:"small_mass" json:"small_mass"`
	LargeMass       float64      `db:"large_mass" json:"large_mass"`
	ApproachSpeed   float64      `db:"approach_speed" json:"approach_speed"`
	TimeScale       float64      `db:"time_scale" json:"time_scale"`
	TotalCollisions int64        `db:"total_collisions" json:"total_collisions"`
	WallCollisions  int64        `db:"wall_collisions" json:"wall_collisions"`
	BodyCollisions  int64        `db:"body_collisions" json:"body_collisions"`
	PiDigits        string       `db:"pi_digits" json:"pi_digits"`
	Status          string       `db:"status" json:"status"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	StartedAt       sql.NullTime `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}

// Operator is a service operator allowed to use the admin endpoints.
type Operator struct {
	ID           int          `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	PasswordHash string       `db:"password_hash" json:"-"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastLogin    sql.NullTime `db:"last_login" json:"last_login,omitempty"`
}
